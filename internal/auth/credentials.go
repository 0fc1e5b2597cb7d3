package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Identity is who a verified credential belongs to.
type Identity struct {
	Username string `json:"username"`
}

// CredentialVerifier checks a username/password pair.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (Identity, error)
}

// StaticVerifier accepts exactly one plaintext username/password pair.
type StaticVerifier struct {
	Username string
	Password string
}

func (v StaticVerifier) Verify(_ context.Context, username, password string) (Identity, error) {
	if v.Username == "" || username != v.Username || password != v.Password {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{Username: v.Username}, nil
}

// BcryptVerifier accepts one username whose password is stored as a bcrypt hash.
type BcryptVerifier struct {
	Username     string
	PasswordHash []byte
}

func NewBcryptVerifier(username, password string) (*BcryptVerifier, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &BcryptVerifier{Username: username, PasswordHash: hash}, nil
}

func (v *BcryptVerifier) Verify(_ context.Context, username, password string) (Identity, error) {
	if v == nil || v.Username == "" || username != v.Username {
		return Identity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(v.PasswordHash, []byte(password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{Username: v.Username}, nil
}
