package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/noah-isme/tasktrack-api/internal/models"
	"github.com/noah-isme/tasktrack-api/internal/repository"
)

// RoleStore keeps roles in memory.
type RoleStore struct {
	mu    sync.RWMutex
	roles map[string]models.Role
}

// NewRoleStore creates an empty role store.
func NewRoleStore() *RoleStore {
	return &RoleStore{roles: make(map[string]models.Role)}
}

// FindByID returns a role by identifier.
func (s *RoleStore) FindByID(_ context.Context, id string) (*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := copyRole(r)
	return &out, nil
}

// FindByName returns a role by name.
func (s *RoleStore) FindByName(_ context.Context, name string) (*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.roles {
		if r.Name == name {
			out := copyRole(r)
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

// List returns roles ordered by name.
func (s *RoleStore) List(_ context.Context) ([]models.Role, error) {
	s.mu.RLock()
	out := make([]models.Role, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, copyRole(r))
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Create inserts a role, rejecting duplicate names.
func (s *RoleStore) Create(_ context.Context, role *models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(role.Name, "") {
		return repository.ErrDuplicate
	}
	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if role.CreatedAt.IsZero() {
		role.CreatedAt = now
	}
	role.UpdatedAt = now
	s.roles[role.ID] = copyRole(*role)
	return nil
}

// Update replaces a stored role.
func (s *RoleStore) Update(_ context.Context, role *models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[role.ID]; !ok {
		return sql.ErrNoRows
	}
	if s.nameTaken(role.Name, role.ID) {
		return repository.ErrDuplicate
	}
	role.UpdatedAt = time.Now().UTC()
	s.roles[role.ID] = copyRole(*role)
	return nil
}

// Delete removes a role.
func (s *RoleStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.roles, id)
	return nil
}

func (s *RoleStore) nameTaken(name, exceptID string) bool {
	for id, r := range s.roles {
		if id != exceptID && r.Name == name {
			return true
		}
	}
	return false
}

func copyRole(r models.Role) models.Role {
	r.Permissions = append(pq.StringArray(nil), r.Permissions...)
	return r
}
