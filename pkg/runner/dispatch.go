package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sre-norns/glance/pkg/prob"
)

var (
	ErrNoKind          = fmt.Errorf("no prob kind specified")
	ErrUnsupportedKind = fmt.Errorf("unsupported prob kind")
)

// Play executes a single prob manifest. Artifacts produced by the prob are followed by
// the run log and the metrics collected during the run.
func Play(ctx context.Context, manifest prob.Manifest, options prob.RunOptions, logger log.Logger) (prob.RunStatus, []prob.Artifact, error) {
	runLog := NewRunLog(logger)

	if len(manifest.Kind) == 0 {
		return prob.RunFinishedError, runLog.Package(), ErrNoKind
	}

	info, ok := prob.FindProb(manifest.Kind)
	if !ok {
		return prob.RunFinishedError, runLog.Package(), fmt.Errorf("%w: %q", ErrUnsupportedKind, manifest.Kind)
	}

	registry := prometheus.NewRegistry()
	probeSuccessGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "probe_success",
		Help: "Displays whether or not the probe was a success",
	})
	probeDurationGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "probe_duration_seconds",
		Help: "Returns how long the probe took to complete in seconds",
	})
	registry.MustRegister(probeSuccessGauge, probeDurationGauge)

	_ = level.Info(runLog).Log("msg", "running prob", "kind", manifest.Kind, "version", info.Version)
	start := time.Now()
	status, produced, err := info.RunFunc(ctx, manifest.Spec, options, registry, runLog)
	duration := time.Since(start)

	artifacts := declaredArtifacts(info, produced, runLog)

	status = statusOf(ctx, status, err)
	probeDurationGauge.Set(duration.Seconds())
	if status == prob.RunFinishedSuccess {
		probeSuccessGauge.Set(1)
	}

	if err != nil {
		_ = level.Error(runLog).Log("msg", "prob finished with error", "status", status, "duration", duration, "err", err)
	} else {
		_ = level.Info(runLog).Log("msg", "prob finished", "status", status, "duration", duration)
	}

	metrics, merr := ToArtifact(registry, RegistryOptions{})
	if merr != nil {
		_ = level.Warn(runLog).Log("msg", "failed to collect run metrics", "err", merr)
	}

	artifacts = append(artifacts, runLog.ToArtifact())
	if merr == nil {
		artifacts = append(artifacts, metrics)
	}

	return status, artifacts, err
}

// declaredArtifacts keeps only artifacts whose relation the prob registered
func declaredArtifacts(info prob.ProbRegistration, produced []prob.Artifact, logger log.Logger) []prob.Artifact {
	result := make([]prob.Artifact, 0, len(produced)+2)
	for _, artifact := range produced {
		if !info.Produces(artifact.Rel) {
			_ = level.Warn(logger).Log("msg", "discarding undeclared artifact", "rel", artifact.Rel, "name", artifact.Name)
			continue
		}
		result = append(result, artifact)
	}

	return result
}

func statusOf(ctx context.Context, status prob.RunStatus, err error) prob.RunStatus {
	if err == nil && status != prob.RunNotFinished {
		return status
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return prob.RunFinishedTimeout
	case errors.Is(ctx.Err(), context.Canceled), errors.Is(err, context.Canceled):
		return prob.RunFinishedCanceled
	case status == prob.RunNotFinished:
		return prob.RunFinishedError
	}

	return status
}
