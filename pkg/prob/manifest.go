package prob

import (
	"fmt"
	"reflect"

	"github.com/sre-norns/glance/pkg/wyrd"
)

var probKindRegistry = map[Kind]reflect.Type{}

func RegisterKind(kind Kind, proto any) error {
	val := reflect.ValueOf(proto)
	if !val.IsValid() || !val.CanInterface() {
		return fmt.Errorf("type of %q can not interface", kind)
	}

	t := val.Type()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	probKindRegistry[kind] = t
	return nil
}

func UnregisterKind(kind Kind) {
	delete(probKindRegistry, kind)
}

// InstanceOf returns a pointer to a new spec value of the prob kind
func InstanceOf(kind Kind) (any, error) {
	t, known := probKindRegistry[kind]
	if !known {
		return nil, fmt.Errorf("%w: %q", wyrd.ErrUnknownKind, kind)
	}

	return reflect.New(t).Interface(), nil
}
