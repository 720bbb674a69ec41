package cache

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"github.com/zeebo/blake3"

	"github.com/vk/weftflow/internal/spec"
)

// Key is the hex-encoded blake3 fingerprint identifying one cacheable
// invocation: same task, same version, same resolved inputs, same key.
type Key string

// KeyFor computes the deterministic cache key for a task invocation. Inputs
// are hashed in the task's declared parameter order, each component
// length-prefixed so adjacent fields can never be confused for one another.
func KeyFor(task *spec.TaskSpec, inputs map[string]cty.Value) (Key, error) {
	h := blake3.New()

	writeComponent(h, []byte(task.ID.Name))
	writeComponent(h, []byte(task.ID.Version))

	for _, p := range task.Inputs {
		val, ok := inputs[p.Name]
		if !ok {
			return "", fmt.Errorf("cache key: no resolved value for input %q", p.Name)
		}
		marshalType := p.Type
		if marshalType == cty.NilType || marshalType.HasDynamicTypes() {
			marshalType = val.Type()
		}
		raw, err := ctyjson.Marshal(val, marshalType)
		if err != nil {
			return "", fmt.Errorf("cache key: input %q: %w", p.Name, err)
		}
		writeComponent(h, []byte(p.Name))
		writeComponent(h, raw)
	}

	sum := h.Sum(nil)
	return Key(hex.EncodeToString(sum)), nil
}

func writeComponent(w io.Writer, b []byte) {
	var length [8]byte
	binary.BigEndian.PutUint64(length[:], uint64(len(b)))
	w.Write(length[:])
	w.Write(b)
}
