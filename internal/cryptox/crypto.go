// Package cryptox derives and encodes argon2id credential hashes.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/dmitrijs2005/gopfolio/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	schemePrefix = "argon2id"
	saltSize     = 16
	keySize      = 32
)

var ErrMalformedCredential = errors.New("malformed argon2id credential")

// DeriveKey stretches password with salt using argon2id (1 pass, 64 MiB, 4 lanes).
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, keySize)
}

// EncodeCredential hashes password under a fresh random salt and returns
// "argon2id$<salt>$<key>" with both parts in unpadded base64.
func EncodeCredential(password string) string {
	salt := common.GenerateRandByteArray(saltSize)
	key := DeriveKey([]byte(password), salt)
	defer common.WipeByteArray(key)

	enc := base64.RawStdEncoding
	return schemePrefix + "$" + enc.EncodeToString(salt) + "$" + enc.EncodeToString(key)
}

// DecodeCredential splits an encoded credential back into salt and key.
func DecodeCredential(encoded string) (salt, key []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != schemePrefix {
		return nil, nil, ErrMalformedCredential
	}

	enc := base64.RawStdEncoding
	if salt, err = enc.DecodeString(parts[1]); err != nil {
		return nil, nil, ErrMalformedCredential
	}
	if key, err = enc.DecodeString(parts[2]); err != nil || len(key) != keySize {
		return nil, nil, ErrMalformedCredential
	}
	return salt, key, nil
}

// VerifyCredential reports whether password matches the encoded credential.
// Malformed input never matches.
func VerifyCredential(password, encoded string) bool {
	salt, want, err := DecodeCredential(encoded)
	if err != nil {
		return false
	}

	got := DeriveKey([]byte(password), salt)
	defer common.WipeByteArray(got)

	return subtle.ConstantTimeCompare(got, want) == 1
}
