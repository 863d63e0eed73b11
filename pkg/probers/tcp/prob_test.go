package tcp_test

import (
	"context"
	"net"
	"testing"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sre-norns/glance/pkg/prob"
	"github.com/sre-norns/glance/pkg/probers/tcp"
	"github.com/sre-norns/glance/pkg/wyrd"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) net.Listener {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	return l
}

func TestRunScript(t *testing.T) {
	open := listen(t)

	closed, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	closedAddr := closed.Addr().String()
	require.NoError(t, closed.Close())

	testCases := map[string]struct {
		given        any
		expectStatus prob.RunStatus
		expectError  error
	}{
		"wrong-spec": {
			given:        tcp.Spec{},
			expectStatus: prob.RunFinishedError,
			expectError:  wyrd.ErrUnexpectedSpecType,
		},
		"no-target": {
			given:        &tcp.Spec{},
			expectStatus: prob.RunFinishedError,
			expectError:  prob.ErrNoTarget,
		},
		"no-port": {
			given:        &tcp.Spec{Target: "localhost"},
			expectStatus: prob.RunFinishedError,
		},
		"open": {
			given:        &tcp.Spec{Target: open.Addr().String()},
			expectStatus: prob.RunFinishedSuccess,
		},
		"closed": {
			given:        &tcp.Spec{Target: closedAddr},
			expectStatus: prob.RunFinishedFailed,
		},
	}

	for name, tc := range testCases {
		test := tc
		t.Run(name, func(t *testing.T) {
			status, artifacts, err := tcp.RunScript(context.Background(), test.given, prob.RunOptions{}, prometheus.NewRegistry(), log.NewNopLogger())
			require.Equal(t, test.expectStatus, status)
			require.Empty(t, artifacts)

			switch {
			case test.expectError != nil:
				require.ErrorIs(t, err, test.expectError)
			case test.expectStatus == prob.RunFinishedError:
				require.Error(t, err)
			default:
				require.NoError(t, err)
			}
		})
	}
}
