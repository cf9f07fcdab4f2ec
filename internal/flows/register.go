package flows

import (
	"context"
	"errors"
	"net/mail"
	"strings"
)

// RegisterFailureKind classifies registration failures for root-level mapping.
type RegisterFailureKind int

const (
	RegisterFailureNone RegisterFailureKind = iota
	RegisterFailureInvalidEmail
	RegisterFailureWeakPassword
	RegisterFailureDuplicate
	RegisterFailureHash
	RegisterFailureStore
)

// RegisterResult carries either the created identity or failure metadata.
type RegisterResult struct {
	Failure  RegisterFailureKind
	Err      error
	Identity IdentityRecord
}

// CreateIdentityInput is what the identity provider receives for a new
// account. The password has already been hashed; the plaintext never reaches
// the provider.
type CreateIdentityInput struct {
	Email          string
	Name           string
	PasswordDigest string
}

// RegisterDeps captures registration flow dependencies.
type RegisterDeps struct {
	MinPasswordLength int
	HashPassword      func(string) (string, error)
	CreateIdentity    func(context.Context, CreateIdentityInput) (IdentityRecord, error)
	DuplicateEmail    error
}

// NormalizeEmail lowercases and trims an email address; lookups and uniqueness
// are always over this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RunRegister validates the input, hashes the password, and creates the
// identity. Email uniqueness is enforced by the provider, not checked first:
// the create is the atomic claim on the address.
func RunRegister(ctx context.Context, email, name, plaintext string, deps RegisterDeps) RegisterResult {
	email = NormalizeEmail(email)
	if email == "" {
		return RegisterResult{Failure: RegisterFailureInvalidEmail, Err: errors.New("empty email")}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return RegisterResult{Failure: RegisterFailureInvalidEmail, Err: err}
	}
	if len(plaintext) < deps.MinPasswordLength {
		return RegisterResult{Failure: RegisterFailureWeakPassword, Err: errors.New("password below minimum length")}
	}

	digest, err := deps.HashPassword(plaintext)
	if err != nil {
		return RegisterResult{Failure: RegisterFailureHash, Err: err}
	}

	ident, err := deps.CreateIdentity(ctx, CreateIdentityInput{
		Email:          email,
		Name:           strings.TrimSpace(name),
		PasswordDigest: digest,
	})
	if err != nil {
		if deps.DuplicateEmail != nil && errors.Is(err, deps.DuplicateEmail) {
			return RegisterResult{Failure: RegisterFailureDuplicate, Err: err}
		}
		return RegisterResult{Failure: RegisterFailureStore, Err: err}
	}

	return RegisterResult{Identity: ident}
}
