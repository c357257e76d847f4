package storage

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
)

func defaultArgon2idParams() Argon2idParams {
	return Argon2idParams{Time: 1, MemoryKiB: 64 * 1024, Parallelism: 4, KeyLen: 32, SaltLen: 16}
}

// phc is a parsed argon2id hash in PHC string format:
// $argon2id$v=19$m=<kib>,t=<time>,p=<parallelism>$<salt>$<hash>
type phc struct {
	params Argon2idParams
	salt   []byte
	hash   []byte
}

func (p Argon2idParams) orDefault() Argon2idParams {
	if p.Time == 0 {
		return defaultArgon2idParams()
	}
	return p
}

// hashPassword derives a new argon2id hash with a random salt
func (p Argon2idParams) hashPassword(password string) (string, error) {
	p = p.orDefault()
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.WithStack(err)
	}
	h := phc{
		params: p,
		salt:   salt,
		hash:   argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Parallelism, p.KeyLen),
	}
	return h.String(), nil
}

// String implements the fmt.Stringer interface
func (h phc) String() string {
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s", argon2.Version,
		h.params.MemoryKiB, h.params.Time, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(h.salt), base64.RawStdEncoding.EncodeToString(h.hash),
	)
}

func parsePHC(encoded string) (phc, error) {
	var h phc
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return h, errors.New("unsupported password hash format")
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return h, errors.New("unsupported argon2 version")
	}
	if _, err := fmt.Sscanf(
		parts[3], "m=%d,t=%d,p=%d", &h.params.MemoryKiB, &h.params.Time, &h.params.Parallelism,
	); err != nil {
		return h, errors.Wrap(err, "invalid argon2id parameters")
	}
	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return h, errors.Wrap(err, "invalid argon2id salt")
	}
	if h.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return h, errors.Wrap(err, "invalid argon2id hash")
	}
	h.params.SaltLen = uint32(len(h.salt))
	h.params.KeyLen = uint32(len(h.hash))
	return h, nil
}

// matches checks password against the hash in constant time
func (h phc) matches(password string) bool {
	dk := argon2.IDKey([]byte(password), h.salt, h.params.Time, h.params.MemoryKiB, h.params.Parallelism, h.params.KeyLen)
	return subtle.ConstantTimeCompare(dk, h.hash) == 1
}
