package wyrd

import (
	"encoding/json"
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownKind        = fmt.Errorf("unknown kind")
	ErrUnexpectedSpecType = fmt.Errorf("unexpected spec type")
)

type Kind string

var metaKindRegistry = map[Kind]reflect.Type{}

func RegisterKind(kind Kind, proto any) error {
	val := reflect.ValueOf(proto)
	if !val.IsValid() || !val.CanInterface() {
		return fmt.Errorf("type of %q can not interface", kind)
	}

	t := val.Type()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	metaKindRegistry[kind] = t
	return nil
}

func UnregisterKind(kind Kind) {
	delete(metaKindRegistry, kind)
}

type KindFactory func(kind Kind) (any, error)

// InstanceOf returns a pointer to a new zero value of the type registered for the kind
func InstanceOf(kind Kind) (any, error) {
	t, known := metaKindRegistry[kind]
	if !known {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	return reflect.New(t).Interface(), nil
}

func KindOf(maybeManifest any) (result Kind, known bool) {
	t := reflect.TypeOf(maybeManifest)
	if t == nil {
		return
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	// Linear scan over map to find key with value equals give: not that terrible when the map is small
	for kind, v := range metaKindRegistry {
		if v == t {
			return kind, true
		}
	}

	return
}

// TypeMeta describe individual objects
type TypeMeta struct {
	APIVersion string `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
	Kind       Kind   `json:"kind,omitempty" yaml:"kind,omitempty"`
}

type ObjectMeta struct {
	// Name is a unique human-readable identifier of a resource
	Name string `json:"name" yaml:"name"`

	// Labels is map of string keys and values that can be used to organize and categorize
	// (scope and select) resources.
	Labels Labels `json:"labels,omitempty" yaml:"labels,omitempty"`
}

type ResourceManifest struct {
	TypeMeta `json:",inline" yaml:",inline"`
	Metadata ObjectMeta `json:"metadata" yaml:"metadata"`
	Spec     any        `json:"-" yaml:"-"`
}

func (u ResourceManifest) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		TypeMeta `json:",inline"`
		Metadata ObjectMeta `json:"metadata"`
		Spec     any        `json:"spec,omitempty"` // needed to strip any json tags
	}{
		TypeMeta: u.TypeMeta,
		Metadata: u.Metadata,
		Spec:     u.Spec,
	})
}

// UnmarshalJSONWithRegister decodes spec data into an instance created by the factory for the given kind.
func UnmarshalJSONWithRegister(kind Kind, factory KindFactory, specData json.RawMessage) (any, error) {
	spec, err := factory(kind)
	if err != nil {
		return nil, err
	}

	if len(specData) == 0 { // No spec to parse
		return nil, nil
	}

	err = json.Unmarshal(specData, spec)
	return spec, err
}

func (s *ResourceManifest) UnmarshalJSON(data []byte) (err error) {
	aux := struct {
		TypeMeta `json:",inline"`
		Metadata ObjectMeta      `json:"metadata"`
		Spec     json.RawMessage `json:"spec"`
	}{}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	spec, err := UnmarshalJSONWithRegister(aux.Kind, InstanceOf, aux.Spec)
	if err != nil {
		return err
	}

	s.TypeMeta = aux.TypeMeta
	s.Metadata = aux.Metadata
	s.Spec = spec
	return nil
}

func (u ResourceManifest) MarshalYAML() (interface{}, error) {
	return struct {
		TypeMeta `json:",inline" yaml:",inline"`
		Metadata ObjectMeta `json:"metadata" yaml:"metadata"`
		Spec     any        `json:"spec" yaml:"spec,omitempty"` // needed to strip any json tags
	}{
		TypeMeta: u.TypeMeta,
		Metadata: u.Metadata,
		Spec:     u.Spec,
	}, nil
}

func (s *ResourceManifest) UnmarshalYAML(n *yaml.Node) error {
	aux := struct {
		TypeMeta `yaml:",inline"`
		Metadata ObjectMeta `yaml:"metadata"`
		Spec     yaml.Node  `yaml:"spec"`
	}{}

	if err := n.Decode(&aux); err != nil {
		return err
	}

	spec, err := InstanceOf(aux.Kind)
	if err != nil {
		return err
	}

	if aux.Spec.Kind == 0 { // No spec to parse
		spec = nil
	} else if err := aux.Spec.Decode(spec); err != nil {
		return err
	}

	s.TypeMeta = aux.TypeMeta
	s.Metadata = aux.Metadata
	s.Spec = spec
	return nil
}
