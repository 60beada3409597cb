package userstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process user store. It backs tests and the -dev mode of
// cmd/authsvc.
type Memory struct {
	mu    sync.RWMutex
	users map[string]User
	now   func() time.Time
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		users: make(map[string]User),
		now:   time.Now,
	}
}

func (m *Memory) GetByID(_ context.Context, id string) (User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	return u, ok, nil
}

func (m *Memory) GetByEmail(_ context.Context, email string) (User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return u, true, nil
		}
	}
	return User{}, false, nil
}

func (m *Memory) GetByUsername(_ context.Context, username string) (User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			return u, true, nil
		}
	}
	return User{}, false, nil
}

// Create assigns an ID and timestamps and stores u.
func (m *Memory) Create(_ context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkUniqueLocked(u, ""); err != nil {
		return User{}, err
	}

	now := m.now().UTC()
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now
	m.users[u.ID] = u
	return u, nil
}

// Update replaces the stored record with u and bumps UpdatedAt.
func (m *Memory) Update(_ context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.users[u.ID]
	if !ok {
		return User{}, ErrNotFound
	}
	if err := m.checkUniqueLocked(u, u.ID); err != nil {
		return User{}, err
	}

	u.CreatedAt = current.CreatedAt
	u.UpdatedAt = m.now().UTC()
	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) UpdatePasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = m.now().UTC()
	m.users[id] = u
	return nil
}

func (m *Memory) RecordLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	at = at.UTC()
	u.LastLoginAt = &at
	m.users[id] = u
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

// List returns the page of users matching q.
func (m *Memory) List(_ context.Context, q ListQuery) (Page, error) {
	m.mu.RLock()
	matched := make([]User, 0, len(m.users))
	for _, u := range m.users {
		if q.matches(u) {
			matched = append(matched, u)
		}
	}
	m.mu.RUnlock()

	return Page{Users: paginate(matched, max(q.Offset, 0), q.Limit), Total: len(matched)}, nil
}

func (m *Memory) Ping(context.Context) error {
	return nil
}

func (m *Memory) checkUniqueLocked(u User, selfID string) error {
	for id, other := range m.users {
		if id == selfID {
			continue
		}
		if other.Email == u.Email {
			return ErrDuplicateEmail
		}
		if other.Username == u.Username {
			return ErrDuplicateUsername
		}
	}
	return nil
}
