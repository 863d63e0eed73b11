// Package checks holds the visual verification checks shipped with glance
// and loads user-defined ones from manifest files.
package checks

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"reflect"

	"github.com/sre-norns/glance/pkg/prob"
	"github.com/sre-norns/glance/pkg/wyrd"
	"gopkg.in/yaml.v3"

	// Prob kinds used by the built-in checks
	_ "github.com/sre-norns/glance/pkg/probers/browser"
)

const (
	Kind       = wyrd.Kind("check")
	APIVersion = "glance/v1"
)

var (
	ErrNotFound    = fmt.Errorf("check not found")
	ErrNotRunnable = fmt.Errorf("manifest is not a runnable check")
)

//go:embed manifests/*.yaml
var builtinFS embed.FS

func init() {
	// Ignore double registration error
	_ = wyrd.RegisterKind(Kind, &Spec{})
}

// Spec of a check: a single prob run with a human readable description
type Spec struct {
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Prob        prob.Manifest `json:"prob" yaml:"prob"`
}

// Check is a named check manifest
type Check = wyrd.ResourceManifest

// ProbOf extracts the prob manifest to run from a check
func ProbOf(check Check) (prob.Manifest, error) {
	if check.Kind != Kind {
		return prob.Manifest{}, fmt.Errorf("%w: %q has kind %q", ErrNotRunnable, check.Metadata.Name, check.Kind)
	}

	spec, ok := check.Spec.(*Spec)
	if !ok {
		return prob.Manifest{}, fmt.Errorf("%w: got %q, expected %q (check %q)", wyrd.ErrUnexpectedSpecType, reflect.TypeOf(check.Spec), reflect.TypeOf(&Spec{}), check.Metadata.Name)
	}

	if spec.Prob.Kind == "" {
		return prob.Manifest{}, fmt.Errorf("%w: check %q has no prob kind", ErrNotRunnable, check.Metadata.Name)
	}

	return spec.Prob, nil
}

// Decode reads all YAML documents from the reader as check manifests
func Decode(r io.Reader) ([]Check, error) {
	var result []Check

	decoder := yaml.NewDecoder(r)
	for {
		var check Check
		err := decoder.Decode(&check)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, err
		}

		if _, err := ProbOf(check); err != nil {
			return result, err
		}
		result = append(result, check)
	}

	return result, nil
}

// FromFile loads checks from a manifest file. Filename "-" reads from STDIN.
func FromFile(filename string) ([]Check, error) {
	var content []byte
	var err error
	if filename == "-" {
		content, err = io.ReadAll(os.Stdin)
	} else {
		content, err = os.ReadFile(filename)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", filename, err)
	}

	checks, err := Decode(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to load checks from %q: %w", filename, err)
	}
	if len(checks) == 0 {
		return nil, fmt.Errorf("%w: no checks in %q", ErrNotFound, filename)
	}

	return checks, nil
}

// List returns the built-in checks in the order they run by default
func List() ([]Check, error) {
	// ReadDir returns entries sorted by file name
	entries, err := builtinFS.ReadDir("manifests")
	if err != nil {
		return nil, err
	}

	result := make([]Check, 0, len(entries))
	for _, entry := range entries {
		content, err := builtinFS.ReadFile(path.Join("manifests", entry.Name()))
		if err != nil {
			return nil, err
		}

		checks, err := Decode(bytes.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("built-in check %q: %w", entry.Name(), err)
		}
		result = append(result, checks...)
	}

	return result, nil
}

// Load returns a built-in check by name
func Load(name string) (Check, error) {
	all, err := List()
	if err != nil {
		return Check{}, err
	}

	for _, check := range all {
		if check.Metadata.Name == name {
			return check, nil
		}
	}

	return Check{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}
