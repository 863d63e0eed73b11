// Package http implements a one-shot HTTP reachability prob backed by the blackbox exporter prober.
package http

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"runtime/debug"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	bxconfig "github.com/prometheus/blackbox_exporter/config"
	"github.com/prometheus/blackbox_exporter/prober"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sre-norns/glance/pkg/prob"
	"github.com/sre-norns/glance/pkg/wyrd"
)

const Kind = prob.Kind("http")

type Spec struct {
	Target string             `json:"target,omitempty" yaml:"target,omitempty"`
	HTTP   bxconfig.HTTPProbe `json:"http" yaml:"http"`
}

func init() {
	moduleVersion := "devel"
	if bi, ok := debug.ReadBuildInfo(); ok {
		moduleVersion = strings.Trim(bi.Main.Version, "()")
	}

	// Ignore double registration error
	_ = prob.RegisterProbKind(
		Kind,
		&Spec{},
		prob.ProbRegistration{
			RunFunc:     RunScript,
			Description: "Check that an HTTP endpoint responds with an expected status",
			Version:     moduleVersion,
		},
	)
}

// module builds blackbox module config, resolving over IPv6 first with IPv4 as a fallback unless told otherwise
func (s *Spec) module() bxconfig.Module {
	httpProbe := s.HTTP
	if httpProbe.IPProtocol == "" {
		httpProbe.IPProtocol = bxconfig.DefaultHTTPProbe.IPProtocol
		httpProbe.IPProtocolFallback = true
	}

	return bxconfig.Module{
		Prober: "http",
		HTTP:   httpProbe,
	}
}

func RunScript(ctx context.Context, probSpec any, config prob.RunOptions, registry *prometheus.Registry, logger log.Logger) (prob.RunStatus, []prob.Artifact, error) {
	spec, ok := probSpec.(*Spec)
	if !ok {
		return prob.RunFinishedError, nil, fmt.Errorf("%w: got %q, expected %q", wyrd.ErrUnexpectedSpecType, reflect.TypeOf(probSpec), reflect.TypeOf(&Spec{}))
	}

	if spec.Target == "" {
		return prob.RunFinishedError, nil, prob.ErrNoTarget
	}
	if _, err := url.Parse(spec.Target); err != nil {
		return prob.RunFinishedError, nil, fmt.Errorf("invalid target %q: %w", spec.Target, err)
	}

	_ = level.Info(logger).Log("msg", "probing", "target", spec.Target)
	if success := prober.ProbeHTTP(ctx, spec.Target, spec.module(), registry, logger); !success {
		if ctx.Err() != nil {
			return prob.RunNotFinished, nil, ctx.Err()
		}
		return prob.RunFinishedFailed, nil, nil
	}

	return prob.RunFinishedSuccess, nil, nil
}
