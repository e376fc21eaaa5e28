package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrBadCreds = errors.New("invalid token")

// TokenAuth checks a presented secret against a bcrypt hash from config.
// An empty hash rejects everything.
type TokenAuth struct {
	Hash string
}

func (a TokenAuth) Check(token string) error {
	if a.Hash == "" || token == "" {
		return ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(a.Hash), []byte(token)) != nil {
		return ErrBadCreds
	}
	return nil
}

// HashToken is used by the CLI to produce a hash for configuration.
func HashToken(token string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(token), 12)
	return string(h), err
}
