package prob

import (
	"encoding/json"
	"time"

	"github.com/sre-norns/glance/pkg/wyrd"
	"gopkg.in/yaml.v3"
)

type Kind = wyrd.Kind

// RunStatus represents the state of script execution once job has been successfully run
type RunStatus string

const (
	// A run completed with a status
	RunNotFinished      RunStatus = ""
	RunFinishedSuccess  RunStatus = "success"
	RunFinishedFailed   RunStatus = "failed"
	RunFinishedError    RunStatus = "errored"
	RunFinishedCanceled RunStatus = "canceled"
	RunFinishedTimeout  RunStatus = "timeout"
)

// Well-known artifact relation types
const (
	RelLog        = "log"
	RelMetrics    = "metrics"
	RelScreenshot = "screenshot"
)

type Manifest struct {
	// Kind identifies the type of content this scenario implementing
	Kind Kind `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Timeout
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// Actual script, of a 'kind' type
	Spec any `json:"-" yaml:"-"`
}

type Artifact struct {
	// Relation type: log / metrics / screenshot. Determines how content is consumed by clients
	Rel string `json:"rel,omitempty" yaml:"rel,omitempty"`

	// Suggested file name, relative to the working directory, if the artifact is to be saved
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// MimeType of the content
	MimeType string `json:"mimeType,omitempty" yaml:"mimeType,omitempty"`

	// Blob content of the artifact
	Content []byte `json:"content,omitempty" yaml:"content,omitempty"`
}

func (u Manifest) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind    Kind          `json:"kind,omitempty"`
		Timeout time.Duration `json:"timeout,omitempty"`
		Spec    any           `json:"spec,omitempty"` // needed to strip any json tags
	}{
		Kind:    u.Kind,
		Timeout: u.Timeout,
		Spec:    u.Spec,
	})
}

func (s *Manifest) UnmarshalJSON(data []byte) error {
	aux := &struct {
		Kind    Kind            `json:"kind,omitempty"`
		Timeout time.Duration   `json:"timeout,omitempty"`
		Spec    json.RawMessage `json:"spec,omitempty"`
	}{
		Kind:    s.Kind,
		Timeout: s.Timeout,
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	spec, err := InstanceOf(aux.Kind)
	if err != nil {
		// Unknown kinds keep their spec as a generic map
		spec = nil
		if len(aux.Spec) != 0 {
			m := make(map[string]any)
			if err := json.Unmarshal(aux.Spec, &m); err != nil {
				return err
			}
			spec = m
		}
	} else if len(aux.Spec) == 0 {
		spec = nil
	} else if err := json.Unmarshal(aux.Spec, spec); err != nil {
		return err
	}

	s.Kind = aux.Kind
	s.Timeout = aux.Timeout
	s.Spec = spec
	return nil
}

func (u Manifest) MarshalYAML() (interface{}, error) {
	return struct {
		Kind    Kind          `yaml:"kind"`
		Timeout time.Duration `yaml:"timeout,omitempty"`
		Spec    interface{}   `yaml:"spec,omitempty"` // needed to strip any json tags
	}{
		Kind:    u.Kind,
		Timeout: u.Timeout,
		Spec:    u.Spec,
	}, nil
}

func (s *Manifest) UnmarshalYAML(n *yaml.Node) (err error) {
	aux := struct {
		Kind    Kind          `yaml:"kind"`
		Timeout time.Duration `yaml:"timeout"`
		Spec    yaml.Node     `yaml:"spec"`
	}{}

	if err := n.Decode(&aux); err != nil {
		return err
	}

	s.Kind = aux.Kind
	s.Timeout = aux.Timeout
	s.Spec = nil
	if aux.Spec.Kind == 0 {
		return nil
	}

	spec, err := InstanceOf(aux.Kind)
	if err != nil {
		spec = &map[string]any{}
	}

	if err := aux.Spec.Decode(spec); err != nil {
		return err
	}

	if m, ok := spec.(*map[string]any); ok {
		s.Spec = *m
	} else {
		s.Spec = spec
	}

	return nil
}
