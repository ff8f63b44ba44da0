package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/remasto/remasto/server/domain/entities"
	"github.com/remasto/remasto/server/domain/repositories"
)

// UserRepository is an in-memory implementation of the user repository,
// suitable as a simple storage backend when Mongo is not configured.
type UserRepository struct {
	mu     sync.RWMutex
	users  map[string]*entities.User // id -> user
	emails map[string]*entities.User // email -> user
}

var _ repositories.UserRepository = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:  make(map[string]*entities.User),
		emails: make(map[string]*entities.User),
	}
}

func (m *UserRepository) Create(ctx context.Context, user *entities.User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}
	if err := user.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.emails[user.Email]; exists {
		return errors.New("user with this email already exists")
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	m.users[user.ID] = user
	m.emails[user.Email] = user
	return nil
}

func (m *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, errors.New("user not found")
	}
	return user, nil
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.emails[email]
	if !exists {
		return nil, errors.New("user not found")
	}
	return user, nil
}

func (m *UserRepository) Update(ctx context.Context, user *entities.User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}
	if err := user.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.users[user.ID]
	if !exists {
		return errors.New("user not found")
	}

	if existing.Email != user.Email {
		delete(m.emails, existing.Email)
		m.emails[user.Email] = user
	}
	user.UpdatedAt = time.Now()
	m.users[user.ID] = user
	return nil
}

func (m *UserRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[id]
	if !exists {
		return errors.New("user not found")
	}
	delete(m.emails, user.Email)
	delete(m.users, id)
	return nil
}
