// Package update verifies signed update attribute bundles that may be attached
// to a ticket request.
package update

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"os"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"tideland.dev/go/slices"
)

// Errors returned by the Verifier
var (
	ErrMalformedAttributes = errors.New("update: malformed attributes")
	ErrSignatureInvalid    = errors.New("update: signature invalid")
)

// Bundle is a verified update attribute bundle
type Bundle struct {
	// Attributes holds the attributes of a known kind
	Attributes []Attribute
	// Hash is the hash of the update image
	Hash string
}

type rawBundle struct {
	Attributes *[]Attribute `json:"attributes"`
	Hash       *string      `json:"hash"`
}

// Verifier checks update attribute bundles against a fixed public key
type Verifier struct {
	key *rsa.PublicKey
}

// NewVerifier returns a Verifier for the passed key
func NewVerifier(key *rsa.PublicKey) *Verifier {
	return &Verifier{key: key}
}

// LoadVerifier reads a PEM encoded RSA public key or certificate from a file
// and returns a Verifier for it
func LoadVerifier(path string) (*Verifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "update: reading public key failed")
	}
	key, err := jwk.ParseKey(data, jwk.WithPEM(true))
	if err != nil {
		return nil, errors.Wrap(err, "update: parsing public key failed")
	}
	var pub rsa.PublicKey
	if err = jwk.Export(key, &pub); err != nil {
		return nil, errors.Wrap(err, "update: public key is not an RSA key")
	}
	return NewVerifier(&pub), nil
}

// Parse decodes the base64 encoded attribute bundle, checks the base64
// encoded signature over the decoded bundle bytes, and only then parses the
// attributes.
func (v *Verifier) Parse(attributesB64, signatureB64 string) (*Bundle, error) {
	decoded, err := base64.StdEncoding.DecodeString(attributesB64)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedAttributes, "could not decode attributes with base64")
	}
	var raw map[string]json.RawMessage
	if err = json.Unmarshal(decoded, &raw); err != nil {
		return nil, errors.Wrap(ErrMalformedAttributes, "attributes are not a json object")
	}
	if _, ok := raw["attributes"]; !ok {
		return nil, errors.Wrap(ErrMalformedAttributes, "missing key 'attributes'")
	}
	if _, ok := raw["hash"]; !ok {
		return nil, errors.Wrap(ErrMalformedAttributes, "missing key 'hash'")
	}
	signature, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return nil, errors.Wrap(ErrSignatureInvalid, "could not decode signature with base64")
	}
	if err = v.verifySignature(decoded, signature); err != nil {
		return nil, err
	}

	var b rawBundle
	if err = json.Unmarshal(decoded, &b); err != nil {
		return nil, errors.Wrap(ErrMalformedAttributes, err.Error())
	}
	if b.Attributes == nil || b.Hash == nil {
		return nil, errors.Wrap(ErrMalformedAttributes, "attributes or hash are null")
	}
	return &Bundle{
		Attributes: Known(*b.Attributes),
		Hash:       *b.Hash,
	}, nil
}

func (v *Verifier) verifySignature(data, signature []byte) error {
	if v == nil || v.key == nil {
		return errors.Wrap(ErrSignatureInvalid, "no update verification key configured")
	}
	digest := sha256.Sum256(data)
	err := rsa.VerifyPKCS1v15(v.key, crypto.SHA256, digest[:], signature)
	log.WithField("valid", err == nil).Debug("update: verified signature")
	if err != nil {
		return errors.Wrap(ErrSignatureInvalid, err.Error())
	}
	return nil
}

// AttributesAllowed checks if every requested attribute is part of the
// granted attributes. It returns false if nothing is requested.
func AttributesAllowed(requested, granted []Attribute) bool {
	if len(requested) == 0 {
		return false
	}
	return len(slices.Subtract(requested, granted)) == 0
}
