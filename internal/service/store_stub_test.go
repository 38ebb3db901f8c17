package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"club-portal/internal/model"
	"club-portal/pkg/apierror"
)

// stubUserStore mimics the Postgres-backed user directory, including its
// uniqueness conflicts, so the identity services can be tested without a
// database.
type stubUserStore struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: map[string]model.User{}}
}

func (s *stubUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func (s *stubUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(email))
	for _, user := range s.users {
		if user.Email != nil && strings.ToLower(*user.Email) == needle {
			return user, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *stubUserStore) FindByOpenID(_ context.Context, openID string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.WeChatOpenID != nil && *user.WeChatOpenID == openID {
			return user, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *stubUserStore) Create(_ context.Context, u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if u.Email != nil && existing.Email != nil && strings.EqualFold(*existing.Email, *u.Email) {
			return model.User{}, apierror.Conflict("email already registered", "email")
		}
		if strings.EqualFold(existing.Username, u.Username) {
			return model.User{}, apierror.Conflict("username already taken", "username")
		}
		if u.WeChatOpenID != nil && existing.WeChatOpenID != nil && *existing.WeChatOpenID == *u.WeChatOpenID {
			return model.User{}, apierror.Conflict("wechat identity already bound to another account", "openid")
		}
	}

	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = u
	return u, nil
}

func (s *stubUserStore) UpdatePassword(_ context.Context, userID string, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	user.PasswordHash = &passwordHash
	s.users[userID] = user
	return nil
}

func (s *stubUserStore) TouchLastLogin(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	now := time.Now().UTC()
	user.LastLoginAt = &now
	s.users[userID] = user
	return nil
}

func (s *stubUserStore) LinkOpenID(_ context.Context, userID string, openID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.WeChatOpenID != nil && *existing.WeChatOpenID == openID {
			return apierror.Conflict("wechat identity already bound to another account", "openid")
		}
	}

	user, ok := s.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	if user.WeChatOpenID != nil {
		return apierror.Conflict("account already has a linked wechat identity", "openid")
	}
	user.WeChatOpenID = &openID
	s.users[userID] = user
	return nil
}

func (s *stubUserStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}
