package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/tasktrack-api/internal/models"
)

// TokenKind selects the secret and lifetime used for a token.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

var (
	// ErrTokenExpired is returned for a correctly signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for any other verification failure.
	ErrTokenInvalid = errors.New("token invalid")
)

// IssuedToken is a freshly signed token and its registered claims.
type IssuedToken struct {
	Token     string
	ID        string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// VerifiedToken carries the claims of a token that passed verification.
type VerifiedToken struct {
	ID        string
	Subject   string
	ExpiresAt time.Time
}

// TokenSigner signs and verifies access and refresh tokens with distinct secrets.
// Verification is a pure function of the secrets, the token and the clock.
type TokenSigner struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	cfg           AuthConfig
}

// NewTokenSigner builds a signer from cfg.
func NewTokenSigner(cfg AuthConfig) *TokenSigner {
	return &TokenSigner{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		cfg:           cfg,
	}
}

// IssueAccess signs a short-lived access token for subject.
func (s *TokenSigner) IssueAccess(subject string) (*IssuedToken, error) {
	return s.issue(subject, s.accessSecret, s.accessTTL)
}

// IssueRefresh signs a long-lived refresh token for subject.
func (s *TokenSigner) IssueRefresh(subject string) (*IssuedToken, error) {
	return s.issue(subject, s.refreshSecret, s.refreshTTL)
}

// AccessTTL reports the lifetime of access tokens.
func (s *TokenSigner) AccessTTL() time.Duration { return s.accessTTL }

func (s *TokenSigner) issue(subject string, secret []byte, ttl time.Duration) (*IssuedToken, error) {
	if subject == "" {
		return nil, errors.New("token subject is required")
	}
	now := s.cfg.now()
	claims := models.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &IssuedToken{
		Token:     signed,
		ID:        claims.ID,
		Subject:   subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Verify checks the signature and expiry of raw against the secret of kind.
// It fails with ErrTokenExpired or ErrTokenInvalid.
func (s *TokenSigner) Verify(raw string, kind TokenKind) (*VerifiedToken, error) {
	secret := s.accessSecret
	if kind == TokenRefresh {
		secret = s.refreshSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.cfg.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &models.TokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return &VerifiedToken{
		ID:        claims.ID,
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
