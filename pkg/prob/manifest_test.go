package prob_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sre-norns/glance/pkg/prob"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type TestSpec struct {
	Value int    `json:"value" yaml:"value"`
	Name  string `json:"name" yaml:"name"`
}

func TestCustomMarshaling_JSON(t *testing.T) {
	testCases := map[string]struct {
		given  prob.Manifest
		expect string
	}{
		"nothing": {
			given:  prob.Manifest{},
			expect: `{}`,
		},
		"min-spec": {
			given: prob.Manifest{
				Spec: &TestSpec{
					Value: 1,
					Name:  "life",
				},
			},
			expect: `{"spec":{"value":1,"name":"life"}}`,
		},
		"basic": {
			given: prob.Manifest{
				Kind:    prob.Kind("testSpec"),
				Timeout: time.Second,
				Spec: &TestSpec{
					Value: 42,
					Name:  "meaning",
				},
			},
			expect: `{"kind":"testSpec","timeout":1000000000,"spec":{"value":42,"name":"meaning"}}`,
		},
	}

	for name, tc := range testCases {
		test := tc
		t.Run(name, func(t *testing.T) {
			got, err := json.Marshal(test.given)
			require.NoError(t, err)
			require.Equal(t, test.expect, string(got))
		})
	}
}

func TestCustomUnmarshaling_JSON(t *testing.T) {
	testKind := prob.Kind("testSpec")
	require.NoError(t, prob.RegisterKind(testKind, &TestSpec{}))
	defer prob.UnregisterKind(testKind)

	testCases := map[string]struct {
		given       string
		expect      prob.Manifest
		expectError bool
	}{
		"nothing-object": {
			given:  `{}`,
			expect: prob.Manifest{},
		},
		"unknown-kind": {
			given: `{"kind":"unknownSpec","spec":{"field":"xyz","desc":"unknown"}}`,
			expect: prob.Manifest{
				Kind: prob.Kind("unknownSpec"),
				Spec: map[string]any{"field": "xyz", "desc": "unknown"},
			},
		},
		"basic": {
			given: `{"kind":"testSpec","spec":{"value":42,"name":"meaning"}}`,
			expect: prob.Manifest{
				Kind: testKind,
				Spec: &TestSpec{
					Value: 42,
					Name:  "meaning",
				},
			},
		},
		"invalid-spec": {
			given:       `{"kind":"testSpec","spec":{"value":"meaning"}}`,
			expectError: true,
		},
	}

	for name, tc := range testCases {
		test := tc
		t.Run(name, func(t *testing.T) {
			var got prob.Manifest
			err := json.Unmarshal([]byte(test.given), &got)
			if test.expectError {
				require.Error(t, err, "expected error")
			} else {
				require.NoError(t, err, "expected error: %v", test.expectError)
				require.Equal(t, test.expect, got)
			}
		})
	}
}

func TestCustomUnmarshaling_YAML(t *testing.T) {
	testKind := prob.Kind("testSpec")
	require.NoError(t, prob.RegisterKind(testKind, &TestSpec{}))
	defer prob.UnregisterKind(testKind)

	testCases := map[string]struct {
		given       string
		expect      prob.Manifest
		expectError bool
	}{
		"kind-only": {
			given:  `kind: testSpec`,
			expect: prob.Manifest{Kind: testKind},
		},
		"timeout": {
			given: `
kind: testSpec
timeout: 2m
spec:
  value: 7
`,
			expect: prob.Manifest{
				Kind:    testKind,
				Timeout: 2 * time.Minute,
				Spec:    &TestSpec{Value: 7},
			},
		},
		"unknown-kind": {
			given: `
kind: mystery
spec:
  field: xyz
`,
			expect: prob.Manifest{
				Kind: prob.Kind("mystery"),
				Spec: map[string]any{"field": "xyz"},
			},
		},
		"invalid-spec": {
			given: `
kind: testSpec
spec:
  value: [1, 2]
`,
			expectError: true,
		},
	}

	for name, tc := range testCases {
		test := tc
		t.Run(name, func(t *testing.T) {
			var got prob.Manifest
			err := yaml.Unmarshal([]byte(test.given), &got)
			if test.expectError {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, test.expect, got)
		})
	}
}

func TestRegisterProbKind(t *testing.T) {
	testKind := prob.Kind("noop")

	require.ErrorIs(t, prob.RegisterProbKind(testKind, &TestSpec{}, prob.ProbRegistration{}), prob.ErrNilRunner)

	runFn := func(context.Context, any, prob.RunOptions, *prometheus.Registry, log.Logger) (prob.RunStatus, []prob.Artifact, error) {
		return prob.RunFinishedSuccess, nil, nil
	}
	require.NoError(t, prob.RegisterProbKind(testKind, &TestSpec{}, prob.ProbRegistration{
		RunFunc: runFn,
		Version: "test",
		Produce: []string{prob.RelScreenshot},
	}))

	fn, ok := prob.FindRunFunc(testKind)
	require.True(t, ok)
	require.NotNil(t, fn)
	require.Contains(t, prob.ListProbs(), testKind)

	info, ok := prob.FindProb(testKind)
	require.True(t, ok)
	require.Equal(t, "test", info.Version)
	require.True(t, info.Produces(prob.RelScreenshot))
	require.False(t, info.Produces(prob.RelLog))

	require.NoError(t, prob.UnregisterProbKind(testKind))
	_, ok = prob.FindRunFunc(testKind)
	require.False(t, ok)
	_, ok = prob.FindProb(testKind)
	require.False(t, ok)
	require.NotContains(t, prob.ListProbs(), testKind)

	_, err := prob.InstanceOf(testKind)
	require.Error(t, err)
}
