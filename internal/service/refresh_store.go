package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tasktrack-api/internal/models"
	"github.com/noah-isme/tasktrack-api/internal/repository"
	appErrors "github.com/noah-isme/tasktrack-api/pkg/errors"
)

// ErrRefreshTokenNotFound covers both unknown and expired refresh tokens.
var ErrRefreshTokenNotFound = errors.New("refresh token not found")

type refreshTokenRepository interface {
	Rotate(ctx context.Context, token *models.RefreshToken) error
	FindActive(ctx context.Context, token string, now time.Time) (*models.RefreshToken, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// RefreshTokenStore keeps at most one live refresh token per identity.
type RefreshTokenStore struct {
	repo   refreshTokenRepository
	signer *TokenSigner
	logger *zap.Logger
	config AuthConfig
}

// NewRefreshTokenStore constructs a refresh token store.
func NewRefreshTokenStore(repo refreshTokenRepository, signer *TokenSigner, logger *zap.Logger, config AuthConfig) *RefreshTokenStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshTokenStore{repo: repo, signer: signer, logger: logger, config: config}
}

// Issue signs a refresh token for identityID and atomically replaces every
// previous token of that identity with it.
func (s *RefreshTokenStore) Issue(ctx context.Context, identityID string) (string, error) {
	issued, err := s.signer.IssueRefresh(identityID)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign refresh token")
	}

	row := &models.RefreshToken{
		UserID:    identityID,
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
		CreatedAt: issued.IssuedAt,
	}
	if err := s.repo.Rotate(ctx, row); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "refresh token already exists")
		}
		return "", appErrors.Unavailable(err, "failed to persist refresh token")
	}
	return issued.Token, nil
}

// Lookup returns the persisted row for raw. Unknown and expired tokens both
// yield ErrRefreshTokenNotFound.
func (s *RefreshTokenStore) Lookup(ctx context.Context, raw string) (*models.RefreshToken, error) {
	row, err := s.repo.FindActive(ctx, raw, s.config.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, appErrors.Unavailable(err, "failed to load refresh token")
	}
	return row, nil
}

// Revoke deletes raw. Revoking an unknown token succeeds.
func (s *RefreshTokenStore) Revoke(ctx context.Context, raw string) error {
	if err := s.repo.DeleteByToken(ctx, raw); err != nil {
		return appErrors.Unavailable(err, "failed to revoke refresh token")
	}
	return nil
}

// RevokeAll deletes every refresh token of identityID.
func (s *RefreshTokenStore) RevokeAll(ctx context.Context, identityID string) error {
	if err := s.repo.DeleteByUser(ctx, identityID); err != nil {
		return appErrors.Unavailable(err, "failed to revoke refresh tokens")
	}
	return nil
}

// Sweep deletes rows whose expiry has passed and reports how many were removed.
func (s *RefreshTokenStore) Sweep(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.config.now())
	if err != nil {
		return 0, appErrors.Unavailable(err, "failed to sweep refresh tokens")
	}
	if n > 0 {
		s.logger.Info("expired refresh tokens swept", zap.Int64("count", n))
	}
	return n, nil
}
