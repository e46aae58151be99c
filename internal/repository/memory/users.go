// Package memory holds in-process stores with the same contracts as the
// postgres repositories. They back tests and the storage-free dev profile.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/tasktrack-api/internal/models"
	"github.com/noah-isme/tasktrack-api/internal/repository"
)

// UserStore keeps identities in memory.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewUserStore creates an empty user store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]models.User)}
}

// FindByEmail returns a user by case-insensitive email.
func (s *UserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			out := copyUser(u)
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

// FindByID returns a user by identifier.
func (s *UserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := copyUser(u)
	return &out, nil
}

// List filters and pages users, newest first.
func (s *UserStore) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	s.mu.RLock()
	matched := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		if filter.FirstName != "" && !containsFold(u.FirstName, filter.FirstName) {
			continue
		}
		if filter.LastName != "" && !containsFold(u.LastName, filter.LastName) {
			continue
		}
		if filter.StartDate != nil && u.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && u.CreatedAt.After(*filter.EndDate) {
			continue
		}
		matched = append(matched, copyUser(u))
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, filter.Page, filter.PageSize), len(matched), nil
}

// Create inserts a user, rejecting duplicate emails.
func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(user.Email, "") {
		return repository.ErrDuplicate
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	s.users[user.ID] = copyUser(*user)
	return nil
}

// Update replaces a stored user.
func (s *UserStore) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	if s.emailTaken(user.Email, user.ID) {
		return repository.ErrDuplicate
	}
	user.UpdatedAt = time.Now().UTC()
	s.users[user.ID] = copyUser(*user)
	return nil
}

// Delete removes a user.
func (s *UserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.users, id)
	return nil
}

func (s *UserStore) emailTaken(email, exceptID string) bool {
	for id, u := range s.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func copyUser(u models.User) models.User {
	if u.RoleID != nil {
		roleID := *u.RoleID
		u.RoleID = &roleID
	}
	return u
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 {
		page = 1
	}
	if page > models.MaxPage {
		page = models.MaxPage
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
