package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tasktrack-api/internal/models"
)

func TestSignerRoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Now().UTC()}
	signer := NewTokenSigner(testAuthConfig(clock))

	issued, err := signer.IssueAccess("user-1")
	require.NoError(t, err)

	verified, err := signer.Verify(issued.Token, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", verified.Subject)
	assert.Equal(t, issued.ID, verified.ID)
	assert.WithinDuration(t, clock.Now().Add(15*time.Minute), verified.ExpiresAt, time.Second)
}

func TestSignerSecretsAreNotInterchangeable(t *testing.T) {
	signer := NewTokenSigner(testAuthConfig(&fakeClock{now: time.Now().UTC()}))

	access, err := signer.IssueAccess("user-1")
	require.NoError(t, err)
	refresh, err := signer.IssueRefresh("user-1")
	require.NoError(t, err)

	_, err = signer.Verify(access.Token, TokenRefresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = signer.Verify(refresh.Token, TokenAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSignerExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Now().UTC()}
	signer := NewTokenSigner(testAuthConfig(clock))

	issued, err := signer.IssueAccess("user-1")
	require.NoError(t, err)

	clock.Advance(15*time.Minute + time.Second)
	_, err = signer.Verify(issued.Token, TokenAccess)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSignerRejectsForeignAndTamperedTokens(t *testing.T) {
	clock := &fakeClock{now: time.Now().UTC()}
	cfg := testAuthConfig(clock)
	signer := NewTokenSigner(cfg)

	cfg.AccessSecret = "other-secret"
	foreign, err := NewTokenSigner(cfg).IssueAccess("user-1")
	require.NoError(t, err)
	_, err = signer.Verify(foreign.Token, TokenAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, models.TokenClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    cfg.Issuer,
		ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
	}}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = signer.Verify(unsigned, TokenAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	issued, err := signer.IssueAccess("user-1")
	require.NoError(t, err)
	parts := strings.Split(issued.Token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	_, err = signer.Verify(tampered, TokenAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSignerTokensAreUniqueWithinOneSecond(t *testing.T) {
	signer := NewTokenSigner(testAuthConfig(&fakeClock{now: time.Now().UTC()}))

	a, err := signer.IssueRefresh("user-1")
	require.NoError(t, err)
	b, err := signer.IssueRefresh("user-1")
	require.NoError(t, err)
	assert.NotEqual(t, a.Token, b.Token)
}
