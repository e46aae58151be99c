package memory

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/tasktrack-api/internal/models"
	"github.com/noah-isme/tasktrack-api/pkg/ids"
)

// AuditStore is an append-only in-memory audit log.
type AuditStore struct {
	mu   sync.RWMutex
	logs []models.AuditLog
}

// NewAuditStore creates an empty audit store.
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

// Create appends an entry.
func (s *AuditStore) Create(_ context.Context, log *models.AuditLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	if log.ID == "" {
		log.ID = ids.NewAt(log.CreatedAt)
	}
	if len(log.Detail) == 0 {
		log.Detail = []byte(`{}`)
	}
	s.mu.Lock()
	s.logs = append(s.logs, *log)
	s.mu.Unlock()
	return nil
}

// List returns matching entries, newest first.
func (s *AuditStore) List(_ context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error) {
	s.mu.RLock()
	matched := make([]models.AuditLog, 0, len(s.logs))
	for i := len(s.logs) - 1; i >= 0; i-- {
		l := s.logs[i]
		if filter.ActorID != "" && l.UserID != filter.ActorID {
			continue
		}
		if filter.Entity != "" && l.Entity != filter.Entity {
			continue
		}
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		matched = append(matched, l)
	}
	s.mu.RUnlock()
	return paginate(matched, filter.Page, filter.PageSize), len(matched), nil
}

// All returns a copy of every entry in append order.
func (s *AuditStore) All() []models.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AuditLog(nil), s.logs...)
}
