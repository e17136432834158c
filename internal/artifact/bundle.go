package artifact

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Bundle is the raw 'output' object of a prediction, keyed by field name.
// Values are expected to be data URLs or raw base64 strings, but are kept
// untyped so a single odd value cannot prevent the others from decoding.
type Bundle map[string]any

// Value returns the string value of the field given. Absent and null
// fields return an empty string. Scalars are weakly coerced to strings,
// anything else is an error.
func (b Bundle) Value(field string) (string, error) {
	raw, ok := b[field]
	if !ok || raw == nil {
		return "", nil
	}

	var value string
	if err := mapstructure.WeakDecode(raw, &value); err != nil {
		return "", fmt.Errorf("value of type %T cannot be used as base64 content: %w", raw, err)
	}

	return value, nil
}
