package auth

import (
	"errors"
	"fmt"

	domainerrors "todoapp/internal/domain/errors"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords with bcrypt. The salt is embedded in
// every digest, so hashing the same input twice yields different digests.
type Hasher struct {
	cost int
}

func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: %d", domainerrors.ErrInvalidHashCost, cost)
	}
	return &Hasher{cost: cost}, nil
}

// Hash rejects empty input and input longer than 72 bytes as validation
// failures. bcrypt counts bytes, so a short multibyte password can still be
// too long.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("%w: %w", domainerrors.ErrValidationFailed, domainerrors.ErrEmptyPassword)
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: %w", domainerrors.ErrValidationFailed, err)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. Malformed digests never match.
func (h *Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
