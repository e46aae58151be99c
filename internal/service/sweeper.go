package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/tasktrack-api/pkg/jobs"
)

// JobSweepRefreshTokens is the job type handled by TokenSweeper.
const JobSweepRefreshTokens = "refresh_tokens.sweep"

// TokenSweeper deletes expired refresh token rows from a job queue.
type TokenSweeper struct {
	store   *RefreshTokenStore
	metrics *MetricsService
	logger  *zap.Logger
}

// NewTokenSweeper constructs a sweeper.
func NewTokenSweeper(store *RefreshTokenStore, metrics *MetricsService, logger *zap.Logger) *TokenSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenSweeper{store: store, metrics: metrics, logger: logger}
}

// Handle matches jobs.Handler.
func (s *TokenSweeper) Handle(ctx context.Context, job jobs.Job) error {
	if job.Type != JobSweepRefreshTokens {
		return fmt.Errorf("unsupported job type %q", job.Type)
	}
	n, err := s.store.Sweep(ctx)
	if err != nil {
		return err
	}
	s.metrics.AddSweptTokens(n)
	s.logger.Debug("refresh token sweep finished", zap.String("job_id", job.ID), zap.Int64("removed", n))
	return nil
}
