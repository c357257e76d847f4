// Package wire implements the compact binary encoding of the DCAF protocol
// messages.
//
// Messages are CBOR maps whose keys are the small integer tags of the
// registry in registry.go. Encoding uses the deterministic core encoding
// options, so the bytes of a Face are reproducible by every party that holds
// the same values; the MAC of a ticket is computed over exactly these bytes.
package wire

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// ContentType is the media type of CBOR encoded DCAF messages
const ContentType = "application/cbor"

// ErrMalformed is returned (wrapped) if a payload cannot be decoded into a
// DCAF message
var ErrMalformed = errors.New("wire: malformed message")

var encMode cbor.EncMode
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("wire: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		// A map with duplicate keys is ambiguous and rejected.
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic("wire: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v with the deterministic encoding mode
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes data into v; decoding errors are wrapped with
// ErrMalformed
func Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return errors.Wrap(ErrMalformed, "empty payload")
	}
	if err := decMode.Unmarshal(data, v); err != nil {
		return errors.Wrapf(ErrMalformed, "%s", err.Error())
	}
	return nil
}
