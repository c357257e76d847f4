package update

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"github.com/pkg/errors"
)

// encoded length of the 16 byte iv
const ivPrefixLen = 24

// EncryptHash encrypts an update hash with a key derived from passphrase so
// that only the resource server holding the same pre-shared key can read it.
// The key is the SHA-256 of the passphrase, the cipher is AES in CBC mode with
// PKCS#7 padding. The result is base64(iv) followed by base64(ciphertext).
func EncryptHash(passphrase, hash string) (string, error) {
	block, err := newCipher(passphrase)
	if err != nil {
		return "", err
	}
	iv := make([]byte, aes.BlockSize)
	if _, err = rand.Read(iv); err != nil {
		return "", errors.Wrap(err, "update: generating iv failed")
	}
	plain := pad([]byte(hash), aes.BlockSize)
	encrypted := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(encrypted, plain)
	return base64.StdEncoding.EncodeToString(iv) + base64.StdEncoding.EncodeToString(encrypted), nil
}

// DecryptHash reverses EncryptHash
func DecryptHash(passphrase, encrypted string) (string, error) {
	if len(encrypted) <= ivPrefixLen {
		return "", errors.New("update: encrypted hash too short")
	}
	iv, err := base64.StdEncoding.DecodeString(encrypted[:ivPrefixLen])
	if err != nil {
		return "", errors.Wrap(err, "update: decoding iv failed")
	}
	data, err := base64.StdEncoding.DecodeString(encrypted[ivPrefixLen:])
	if err != nil {
		return "", errors.Wrap(err, "update: decoding ciphertext failed")
	}
	if len(iv) != aes.BlockSize || len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return "", errors.New("update: invalid ciphertext length")
	}
	block, err := newCipher(passphrase)
	if err != nil {
		return "", err
	}
	plain := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, data)
	plain, err = unpad(plain, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func newCipher(passphrase string) (cipher.Block, error) {
	key := sha256.Sum256([]byte(passphrase))
	block, err := aes.NewCipher(key[:])
	return block, errors.WithStack(err)
}

func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, blockSize int) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("update: invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("update: invalid padding")
		}
	}
	return data[:len(data)-n], nil
}
