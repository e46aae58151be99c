package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/tasktrack-api/internal/models"
	"github.com/noah-isme/tasktrack-api/internal/repository"
)

// RefreshTokenStore keeps refresh tokens in memory. A single mutex makes
// Rotate atomic, which also serialises rotations across users.
type RefreshTokenStore struct {
	mu      sync.Mutex
	byToken map[string]models.RefreshToken
}

// NewRefreshTokenStore creates an empty refresh token store.
func NewRefreshTokenStore() *RefreshTokenStore {
	return &RefreshTokenStore{byToken: make(map[string]models.RefreshToken)}
}

// Rotate deletes every token of token.UserID and inserts token.
func (s *RefreshTokenStore) Rotate(_ context.Context, token *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byToken[token.Token]; exists {
		return repository.ErrDuplicate
	}
	for k, rt := range s.byToken {
		if rt.UserID == token.UserID {
			delete(s.byToken, k)
		}
	}
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	s.byToken[token.Token] = *token
	return nil
}

// FindActive returns the row for token if it has not expired at now.
func (s *RefreshTokenStore) FindActive(_ context.Context, token string, now time.Time) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.byToken[token]
	if !ok || !rt.ExpiresAt.After(now) {
		return nil, sql.ErrNoRows
	}
	return &rt, nil
}

// DeleteByToken removes a token if present.
func (s *RefreshTokenStore) DeleteByToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byToken, token)
	return nil
}

// DeleteByUser removes every token of a user.
func (s *RefreshTokenStore) DeleteByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, rt := range s.byToken {
		if rt.UserID == userID {
			delete(s.byToken, k)
		}
	}
	return nil
}

// DeleteExpired removes rows that expired at or before now.
func (s *RefreshTokenStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, rt := range s.byToken {
		if !rt.ExpiresAt.After(now) {
			delete(s.byToken, k)
			n++
		}
	}
	return n, nil
}

// CountByUser returns the number of rows held for userID, expired or not.
func (s *RefreshTokenStore) CountByUser(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, rt := range s.byToken {
		if rt.UserID == userID {
			n++
		}
	}
	return n
}
