package prob

// BrowserOptions control how browser-based probs launch the browser binary
type BrowserOptions struct {
	// Path to the Chrome/Chromium binary. Empty means lookup in well-known locations.
	ExecPath string

	Headless  bool
	NoSandbox bool
}

type RunOptions struct {
	Browser BrowserOptions

	// Base directory for artifacts that suggest a relative file name
	WorkingDirectory string
}
