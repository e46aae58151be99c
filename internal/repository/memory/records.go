package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/tasktrack-api/internal/models"
)

// RecordStore keeps records in memory.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]models.Record
}

// NewRecordStore creates an empty record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[string]models.Record)}
}

// FindByID returns a record by identifier.
func (s *RecordStore) FindByID(_ context.Context, id string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

// List filters and pages records, newest first.
func (s *RecordStore) List(_ context.Context, filter models.RecordFilter) ([]models.Record, int, error) {
	s.mu.RLock()
	matched := make([]models.Record, 0, len(s.records))
	for _, r := range s.records {
		if filter.OwnerID != "" && r.UserID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		matched = append(matched, r)
	}
	s.mu.RUnlock()
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, filter.Page, filter.PageSize), len(matched), nil
}

// Create inserts a record.
func (s *RecordStore) Create(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	s.records[record.ID] = *record
	return nil
}

// Update replaces a stored record.
func (s *RecordStore) Update(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; !ok {
		return sql.ErrNoRows
	}
	record.UpdatedAt = time.Now().UTC()
	s.records[record.ID] = *record
	return nil
}

// Delete removes a record.
func (s *RecordStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.records, id)
	return nil
}
