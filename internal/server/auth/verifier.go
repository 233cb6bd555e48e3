package auth

import (
	"crypto/subtle"
	"fmt"

	"github.com/dmitrijs2005/gopfolio/internal/cryptox"
	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier compares a supplied credential with the stored one.
// Hash produces the stored form for a new credential.
type CredentialVerifier interface {
	Verify(supplied, stored string) bool
	Hash(credential string) (string, error)
}

const (
	SchemePlain    = "plain"
	SchemeBcrypt   = "bcrypt"
	SchemeArgon2id = "argon2id"
)

// NewVerifier returns the verifier for scheme.
func NewVerifier(scheme string) (CredentialVerifier, error) {
	switch scheme {
	case SchemePlain:
		return PlainVerifier{}, nil
	case SchemeBcrypt:
		return BcryptVerifier{Cost: bcrypt.DefaultCost}, nil
	case SchemeArgon2id:
		return Argon2Verifier{}, nil
	default:
		return nil, fmt.Errorf("unknown credential scheme %q", scheme)
	}
}

// PlainVerifier stores credentials as-is and compares in constant time.
type PlainVerifier struct{}

func (PlainVerifier) Verify(supplied, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(stored)) == 1
}

func (PlainVerifier) Hash(credential string) (string, error) {
	return credential, nil
}

type BcryptVerifier struct {
	Cost int
}

func (BcryptVerifier) Verify(supplied, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
}

func (v BcryptVerifier) Hash(credential string) (string, error) {
	cost := v.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(credential), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type Argon2Verifier struct{}

func (Argon2Verifier) Verify(supplied, stored string) bool {
	return cryptox.VerifyCredential(supplied, stored)
}

func (Argon2Verifier) Hash(credential string) (string, error) {
	return cryptox.EncodeCredential(credential), nil
}
