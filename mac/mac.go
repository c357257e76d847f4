// Package mac computes and checks the verifiers of DCAF tickets.
package mac

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/pkg/errors"

	"github.com/dcaf-go/dcaf/wire"
)

// Errors returned by the MAC engine
var (
	ErrUnsupportedAlgorithm = errors.New("mac: unsupported algorithm")
	ErrInvalidKey           = errors.New("mac: invalid key")
)

// Method is one of the supported MAC algorithms
type Method struct {
	name string
	hash func() hash.Hash
}

// The supported MAC methods
var (
	HMACSHA256 = Method{
		name: "HMAC_SHA_256",
		hash: sha256.New,
	}
	HMACSHA384 = Method{
		name: "HMAC_SHA_384",
		hash: sha512.New384,
	}
	HMACSHA512 = Method{
		name: "HMAC_SHA_512",
		hash: sha512.New,
	}
)

// Methods lists all supported methods
var Methods = []Method{
	HMACSHA256,
	HMACSHA384,
	HMACSHA512,
}

// Default is the method used if nothing else is configured
var Default = HMACSHA256

// ParseMethod returns the Method with the passed wire name
func ParseMethod(name string) (Method, error) {
	for _, m := range Methods {
		if m.name == name {
			return m, nil
		}
	}
	return Method{}, errors.Wrapf(ErrUnsupportedAlgorithm, "'%s'", name)
}

// String returns the wire name of the Method
func (m Method) String() string {
	return m.name
}

// Size returns the length of the MAC in bytes
func (m Method) Size() int {
	if m.hash == nil {
		return 0
	}
	return m.hash().Size()
}

// MarshalText implements the encoding.TextMarshaler interface
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.name), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ComputeMAC computes the MAC of payload with key
func ComputeMAC(m Method, key, payload []byte) ([]byte, error) {
	if m.hash == nil {
		return nil, ErrUnsupportedAlgorithm
	}
	if len(key) == 0 {
		return nil, errors.Wrap(ErrInvalidKey, "empty key")
	}
	h := hmac.New(m.hash, key)
	h.Write(payload)
	return h.Sum(nil), nil
}

// FaceMAC computes the verifier for a ticket face. The method is taken from
// the face itself.
func FaceMAC(key []byte, face wire.Face) (wire.Verifier, error) {
	m, err := ParseMethod(face.MacMethod)
	if err != nil {
		return nil, err
	}
	payload, err := face.Bytes()
	if err != nil {
		return nil, errors.Wrap(err, "mac: encoding face failed")
	}
	return ComputeMAC(m, key, payload)
}

// Verify recomputes the verifier of face and compares it to verifier in
// constant time
func Verify(key []byte, face wire.Face, verifier wire.Verifier) bool {
	expected, err := FaceMAC(key, face)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, verifier)
}
