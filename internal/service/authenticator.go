package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/tasktrack-api/internal/models"
)

const bearerScheme = "Bearer"

// Authenticator turns an Authorization header into a resolved principal. It
// never touches the refresh token store.
type Authenticator struct {
	signer   *TokenSigner
	resolver *PermissionResolver
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(signer *TokenSigner, resolver *PermissionResolver, metrics *MetricsService, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{signer: signer, resolver: resolver, metrics: metrics, logger: logger}
}

// Authenticate verifies header and resolves the acting identity. Rejections
// are *AuthFailure values; storage failures are Unavailable.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*models.Principal, error) {
	principal, err := a.authenticate(ctx, header)
	if err != nil {
		var failure *AuthFailure
		if errors.As(err, &failure) {
			a.metrics.RecordAuthOutcome(false, failure.Reason)
			a.logger.Debug("authentication rejected", zap.String("reason", string(failure.Reason)), zap.Error(failure.Cause))
		}
		return nil, err
	}
	a.metrics.RecordAuthOutcome(true, "")
	return principal, nil
}

func (a *Authenticator) authenticate(ctx context.Context, header string) (*models.Principal, error) {
	raw, failure := parseBearer(header)
	if failure != nil {
		return nil, failure
	}

	verified, err := a.signer.Verify(raw, TokenAccess)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, newAuthFailure(ReasonExpired, err)
		}
		return nil, newAuthFailure(ReasonInvalidSignature, err)
	}

	return a.resolver.ResolveForToken(ctx, verified.Subject, verified.ID, verified.ExpiresAt)
}

func parseBearer(header string) (string, *AuthFailure) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", newAuthFailure(ReasonMissingHeader, nil)
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", newAuthFailure(ReasonMalformedHeader, nil)
	}
	if !strings.EqualFold(parts[0], bearerScheme) {
		return "", newAuthFailure(ReasonUnsupportedScheme, nil)
	}
	return parts[1], nil
}
