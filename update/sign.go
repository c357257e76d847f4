package update

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"

	"github.com/pkg/errors"
)

// Sign encodes a bundle and signs it, returning the values for the update
// attributes and signature fields of an access request
func Sign(key *rsa.PrivateKey, bundle Bundle) (attributesB64, signatureB64 string, err error) {
	attrs := bundle.Attributes
	if attrs == nil {
		attrs = []Attribute{}
	}
	data, err := json.Marshal(
		struct {
			Attributes []Attribute `json:"attributes"`
			Hash       string      `json:"hash"`
		}{attrs, bundle.Hash},
	)
	if err != nil {
		return "", "", errors.WithStack(err)
	}
	return SignRaw(key, data)
}

// SignRaw signs already encoded bundle bytes
func SignRaw(key *rsa.PrivateKey, data []byte) (attributesB64, signatureB64 string, err error) {
	digest := sha256.Sum256(data)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", "", errors.Wrap(err, "update: signing failed")
	}
	return base64.StdEncoding.EncodeToString(data), base64.StdEncoding.EncodeToString(sig), nil
}
