// Package tcp checks that a TCP port accepts connections, optionally running a
// blackbox exporter query/response exchange over it.
package tcp

import (
	"context"
	"fmt"
	"net"
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

const Kind = prob.Kind("tcp")

type Spec struct {
	// Target is a host:port pair
	Target string            `json:"target,omitempty" yaml:"target,omitempty"`
	TCP    bxconfig.TCPProbe `json:"tcp" yaml:"tcp"`
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
			Description: "Check that a TCP port accepts connections",
			Version:     moduleVersion,
		},
	)
}

func (s *Spec) module() bxconfig.Module {
	tcpProbe := s.TCP
	if tcpProbe.IPProtocol == "" {
		tcpProbe.IPProtocol = bxconfig.DefaultTCPProbe.IPProtocol
		tcpProbe.IPProtocolFallback = true
	}

	return bxconfig.Module{
		Prober: "tcp",
		TCP:    tcpProbe,
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
	if _, _, err := net.SplitHostPort(spec.Target); err != nil {
		return prob.RunFinishedError, nil, fmt.Errorf("invalid target %q: %w", spec.Target, err)
	}

	_ = level.Info(logger).Log("msg", "probing TCP port", "target", spec.Target)
	if success := prober.ProbeTCP(ctx, spec.Target, spec.module(), registry, logger); !success {
		if ctx.Err() != nil {
			return prob.RunNotFinished, nil, ctx.Err()
		}
		return prob.RunFinishedFailed, nil, nil
	}

	return prob.RunFinishedSuccess, nil, nil
}
