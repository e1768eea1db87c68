// Package authtest provides an in-memory auth.UserRepository for tests.
package authtest

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-records/internal/apperr"
	"github.com/hackgods/clinic-records/internal/auth"
)

var _ auth.UserRepository = (*MemoryUserRepository)(nil)

type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]auth.User

	// OnCreate, when set, is called with every stored user.
	OnCreate func(auth.User)
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: map[uuid.UUID]auth.User{}}
}

func (m *MemoryUserRepository) CreateUser(_ context.Context, u auth.User) (*auth.User, error) {
	m.mu.Lock()
	for _, other := range m.users {
		if strings.EqualFold(other.Email, u.Email) {
			m.mu.Unlock()
			return nil, apperr.Conflict("email", "A user with this email already exists.")
		}
	}
	m.users[u.ID] = u
	hook := m.OnCreate
	m.mu.Unlock()

	if hook != nil {
		hook(u)
	}
	return &u, nil
}

func (m *MemoryUserRepository) GetUserByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (m *MemoryUserRepository) GetUserByID(_ context.Context, id uuid.UUID) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return &u, nil
}

// Disable marks a stored user inactive.
func (m *MemoryUserRepository) Disable(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	u.IsActive = false
	m.users[id] = u
}

func (m *MemoryUserRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}
