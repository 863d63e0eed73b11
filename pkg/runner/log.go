package runner

import (
	"bytes"
	"sync"

	"github.com/go-kit/log"
	"github.com/sre-norns/glance/pkg/prob"
)

// RunLog is a go-kit logger that keeps a logfmt copy of every record of a single run,
// while also forwarding records to the parent logger.
type RunLog struct {
	mu      sync.Mutex
	content bytes.Buffer

	capture log.Logger
	parent  log.Logger
}

func NewRunLog(parent log.Logger) *RunLog {
	if parent == nil {
		parent = log.NewNopLogger()
	}

	l := &RunLog{parent: parent}
	l.capture = log.With(log.NewLogfmtLogger(l), "ts", log.DefaultTimestampUTC)
	return l
}

// Write is used by the capturing logger only
func (l *RunLog) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.content.Write(p)
}

func (l *RunLog) Log(keyvals ...any) error {
	if err := l.capture.Log(keyvals...); err != nil {
		return err
	}

	return l.parent.Log(keyvals...)
}

func (l *RunLog) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.content.String()
}

func (l *RunLog) ToArtifact() prob.Artifact {
	return prob.Artifact{
		Rel:      prob.RelLog,
		MimeType: "text/plain",
		Content:  []byte(l.String()),
	}
}

func (l *RunLog) Package() []prob.Artifact {
	return []prob.Artifact{l.ToArtifact()}
}
