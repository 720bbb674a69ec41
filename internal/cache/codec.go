package cache

import (
	"encoding/json"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// storedValue is one serialized output: its cty type alongside its value, so
// entries can be decoded without the task specification at hand.
type storedValue struct {
	Type  json.RawMessage `json:"type"`
	Value json.RawMessage `json:"value"`
}

// EncodeOutputs serializes a task's output values into the opaque payload a
// Store persists.
func EncodeOutputs(outputs map[string]cty.Value) ([]byte, error) {
	stored := make(map[string]storedValue, len(outputs))
	for name, val := range outputs {
		t, err := ctyjson.MarshalType(val.Type())
		if err != nil {
			return nil, fmt.Errorf("encode output %q type: %w", name, err)
		}
		v, err := ctyjson.Marshal(val, val.Type())
		if err != nil {
			return nil, fmt.Errorf("encode output %q: %w", name, err)
		}
		stored[name] = storedValue{Type: t, Value: v}
	}
	return json.Marshal(stored)
}

// DecodeOutputs is the inverse of EncodeOutputs.
func DecodeOutputs(payload []byte) (map[string]cty.Value, error) {
	var stored map[string]storedValue
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}

	outputs := make(map[string]cty.Value, len(stored))
	for name, sv := range stored {
		t, err := ctyjson.UnmarshalType(sv.Type)
		if err != nil {
			return nil, fmt.Errorf("decode output %q type: %w", name, err)
		}
		v, err := ctyjson.Unmarshal(sv.Value, t)
		if err != nil {
			return nil, fmt.Errorf("decode output %q: %w", name, err)
		}
		outputs[name] = v
	}
	return outputs, nil
}
