package auth

import (
	"errors"
	"fmt"
	"time"

	domainerrors "todoapp/internal/domain/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL applies when the caller does not ask for a specific lifetime.
const DefaultTokenTTL = 15 * time.Minute

// Claims is the payload of an access token: sub carries the username, id the
// user identifier.
type Claims struct {
	jwt.RegisteredClaims
	UserID *int64 `json:"id,omitempty"`
	Role   string `json:"role,omitempty"`
}

// TokenService mints and verifies stateless bearer tokens. The key and the
// algorithm are fixed at construction.
type TokenService struct {
	key    []byte
	method jwt.SigningMethod
	now    func() time.Time
}

type TokenOption func(*TokenService)

// WithClock replaces the wall clock used for issuing and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(ts *TokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

func NewTokenService(secretKey, algorithm string, opts ...TokenOption) (*TokenService, error) {
	if secretKey == "" {
		return nil, domainerrors.ErrMissingSecretKey
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domainerrors.ErrUnsupportedAlgorithm, algorithm)
	}

	ts := &TokenService{
		key:    []byte(secretKey),
		method: method,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts, nil
}

// Issue signs a token that expires exactly ttl after its iat. Both claims are
// whole seconds, with iat being now truncated, so the token lapses up to one
// second before now+ttl. A zero or negative ttl produces a token that is
// already expired.
func (ts *TokenService) Issue(username string, userID int64, role string, ttl time.Duration) (string, error) {
	issued := ts.now().Truncate(time.Second)
	id := userID
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
		},
		UserID: &id,
		Role:   role,
	}

	signed, err := jwt.NewWithClaims(ts.method, claims).SignedString(ts.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (ts *TokenService) IssueDefault(username string, userID int64, role string) (string, error) {
	return ts.Issue(username, userID, role, DefaultTokenTTL)
}

// Verify checks signature and expiry and returns the principal encoded in the
// token. Errors are one of ErrInvalidSignature, ErrTokenExpired,
// ErrMalformedClaims or ErrMalformedToken.
func (ts *TokenService) Verify(tokenString string) (Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return ts.key, nil },
		jwt.WithValidMethods([]string{ts.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	)
	if err != nil {
		return Principal{}, classify(err)
	}

	if claims.Subject == "" || claims.UserID == nil {
		return Principal{}, domainerrors.ErrMalformedClaims
	}

	return Principal{
		username: claims.Subject,
		userID:   *claims.UserID,
		role:     claims.Role,
	}, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domainerrors.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return domainerrors.ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return domainerrors.ErrMalformedClaims
	default:
		return fmt.Errorf("%w: %v", domainerrors.ErrMalformedToken, err)
	}
}
