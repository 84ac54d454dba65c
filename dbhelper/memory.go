package dbhelper

import (
	"context"
	"sync"
	"time"

	"github.com/authdiscovery/apiv1/models"
	"github.com/google/uuid"
)

// MemoryUserStore keeps users in process memory. It backs the server when
// no database DSN is configured, and the tests.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*models.User)}
}

func (s *MemoryUserStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailableLocked(user.Username, user.Email); err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *MemoryUserStore) CheckAvailable(_ context.Context, username, email string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkAvailableLocked(username, email)
}

func (s *MemoryUserStore) FindByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == identifier || u.Email == identifier {
			return cloneUser(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *MemoryUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryUserStore) SetRefreshTokenHash(_ context.Context, id string, hash *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	if hash == nil {
		u.RefreshTokenHash = nil
	} else {
		h := *hash
		u.RefreshTokenHash = &h
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryUserStore) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryUserStore) UpdateAccountDetails(_ context.Context, id, fullName, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	for otherID, other := range s.users {
		if otherID != id && other.Email == email {
			return nil, ErrEmailTaken
		}
	}
	u.FullName = fullName
	u.Email = email
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}

func (s *MemoryUserStore) CountUsers(_ context.Context) (int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var active int64
	for _, u := range s.users {
		if u.HasLiveSession() {
			active++
		}
	}
	return int64(len(s.users)), active, nil
}

func (s *MemoryUserStore) checkAvailableLocked(username, email string) error {
	for _, u := range s.users {
		if u.Username == username {
			return ErrUsernameTaken
		}
		if u.Email == email {
			return ErrEmailTaken
		}
	}
	return nil
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	if u.RefreshTokenHash != nil {
		h := *u.RefreshTokenHash
		cp.RefreshTokenHash = &h
	}
	return &cp
}
