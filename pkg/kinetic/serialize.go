package kinetic

import (
	"encoding/json"
	"reflect"
)

// Snapshot returns a deep structural copy of the instance's stored state.
// Function values and the bookkeeping tables (listeners, observers, jobs,
// children, connections) are excluded: a snapshot is data only. Fails with
// DestroyedError on a destroyed instance.
func (in *Instance) Snapshot() (map[string]any, error) {
	if err := in.guard("snapshot"); err != nil {
		return nil, err
	}
	return in.snapshot(), nil
}

// snapshot is the unguarded copy, for callers that already checked liveness.
func (in *Instance) snapshot() map[string]any {
	in.mu.RLock()
	defer in.mu.RUnlock()
	out := make(map[string]any, len(in.fields))
	for k, v := range in.fields {
		if isFunc(v) {
			continue
		}
		out[k] = deepCopy(v)
	}
	return out
}

// ToText serializes the snapshot as JSON.
func (in *Instance) ToText() (string, error) {
	if err := in.guard("toText"); err != nil {
		return "", err
	}
	b, err := json.Marshal(in.snapshot())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ApplyText decodes a ToText payload and applies it as a snapshot,
// overwriting stored fields and firing "restored". Malformed input yields a
// DecodeError and leaves state unchanged.
func (in *Instance) ApplyText(s string) error {
	if err := in.guard("applyText"); err != nil {
		return err
	}
	var snap map[string]any
	if err := json.Unmarshal([]byte(s), &snap); err != nil {
		return &DecodeError{Err: err}
	}
	in.applySnapshot(snap)
	return nil
}

// deepCopy copies nested maps and slices so a snapshot cannot alias live
// state. Scalars and unknown types pass through as-is.
func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if isFunc(item) {
				continue
			}
			out[k] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			if isFunc(item) {
				continue
			}
			out = append(out, deepCopy(item))
		}
		return out
	default:
		return v
	}
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}
