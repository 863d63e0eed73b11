package prob

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrNilRunner = fmt.Errorf("prob run function is nil")
	ErrNoTarget  = fmt.Errorf("empty prob.target value")
)

// ScriptRunFn executes a prob spec. Metrics go to the registry, log records to the logger.
type ScriptRunFn func(ctx context.Context, spec any, config RunOptions, registry *prometheus.Registry, logger log.Logger) (RunStatus, []Artifact, error)

// ProbRegistration describes a prob kind compiled into the binary
type ProbRegistration struct {
	RunFunc ScriptRunFn

	// Build version of the module providing the prob
	Version string

	// One line summary shown by `glancectl list --probs`
	Description string

	// Artifact relations the prob may return. Anything else is discarded by the runner.
	Produce []string
}

// Produces reports whether artifacts of the given relation are declared by the prob
func (r ProbRegistration) Produces(rel string) bool {
	return slices.Contains(r.Produce, rel)
}

var kindRunnerMap = map[Kind]ProbRegistration{}

// RegisterProbKind makes a prob kind available to the runner and to manifest decoding
func RegisterProbKind(kind Kind, proto any, probInfo ProbRegistration) error {
	if probInfo.RunFunc == nil {
		return ErrNilRunner
	}

	if err := RegisterKind(kind, proto); err != nil {
		return err
	}

	kindRunnerMap[kind] = probInfo
	return nil
}

func UnregisterProbKind(kind Kind) error {
	UnregisterKind(kind)
	delete(kindRunnerMap, kind)

	return nil
}

// ListProbs returns registered kinds sorted by name
func ListProbs() []Kind {
	result := make([]Kind, 0, len(kindRunnerMap))
	for kind := range kindRunnerMap {
		result = append(result, kind)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })

	return result
}

// FindProb returns registration details of a prob kind
func FindProb(kind Kind) (ProbRegistration, bool) {
	result, ok := kindRunnerMap[kind]
	return result, ok
}

func FindRunFunc(kind Kind) (ScriptRunFn, bool) {
	result, ok := kindRunnerMap[kind]
	return result.RunFunc, ok
}
