package wire

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// Diagnose returns the CBOR diagnostic notation of a payload
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}

// Pretty renders a CBOR payload as indented JSON where the numeric tags are
// replaced with their registry names; byte strings are rendered as hex.
func Pretty(data []byte) (string, error) {
	var v any
	if err := decMode.Unmarshal(data, &v); err != nil {
		return "", errors.Wrap(ErrMalformed, err.Error())
	}
	out, err := json.MarshalIndent(named(v), "", "  ")
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(out), nil
}

func named(v any) any {
	switch t := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[keyName(k)] = named(val)
		}
		return m
	case []any:
		for i, val := range t {
			t[i] = named(val)
		}
		return t
	case []byte:
		return hex.EncodeToString(t)
	default:
		return v
	}
}

func keyName(k any) string {
	switch key := k.(type) {
	case uint64:
		if key <= 0xff {
			if name, ok := TagName(Tag(key)); ok {
				return name
			}
		}
	case string:
		return key
	}
	return fmt.Sprint(k)
}
