package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"club-portal/internal/model"
	"club-portal/pkg/apierror"
)

// UserStore is the user directory consumed by the identity services.
type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, u model.User) (model.User, error)
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
	TouchLastLogin(ctx context.Context, userID string) error
	LinkOpenID(ctx context.Context, userID string, openID string) error
}

type AuthService struct {
	users          UserStore
	tokens         *TokenService
	hasher         *PasswordHasher
	allowedDomains []string
}

func NewAuthService(users UserStore, tokens *TokenService, hasher *PasswordHasher, allowedDomains []string) *AuthService {
	return &AuthService{users: users, tokens: tokens, hasher: hasher, allowedDomains: allowedDomains}
}

func (s *AuthService) registerRules() []fieldRule {
	return []fieldRule{
		{field: "email", required: true,
			validate: func(v string) bool { return emailDomainAllowed(v, s.allowedDomains) },
			message:  "email must belong to an allowed institution domain"},
		{field: "username", required: true, validate: validUsername,
			message: "username must be 3-32 characters of letters, digits, '-' or '_'"},
		{field: "password", required: true, validate: strongEnoughPassword,
			message: "password must be 8-72 characters"},
	}
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	err := validateFields(s.registerRules(), map[string]string{
		"email":    email,
		"username": username,
		"password": req.Password,
	})
	if err != nil {
		return model.TokenPair{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.TokenPair{}, err
	}

	user, err := s.users.Create(ctx, model.User{
		ID:           uuid.NewString(),
		Email:        &email,
		Username:     username,
		PasswordHash: &hash,
		Role:         model.RoleUser,
		Nickname:     strings.TrimSpace(req.Nickname),
	})
	if err != nil {
		return model.TokenPair{}, err
	}

	return s.tokens.IssuePair(user)
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (model.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.TokenPair{}, apierror.Unauthorized("invalid credentials")
		}
		return model.TokenPair{}, err
	}

	// Accounts created through WeChat may have no password yet.
	if user.PasswordHash == nil || !s.hasher.Verify(password, *user.PasswordHash) {
		return model.TokenPair{}, apierror.Unauthorized("invalid credentials")
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		return model.TokenPair{}, err
	}

	return s.tokens.IssuePair(user)
}

// Refresh verifies a refresh token, re-resolves the user and mints a new
// access token. The refresh token itself is not rotated or revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken, TokenTypeRefresh)
	if err != nil {
		return model.TokenPair{}, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.TokenPair{}, apierror.Unauthorized("account no longer exists")
		}
		return model.TokenPair{}, err
	}

	accessToken, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.accessTTL.Seconds()),
		User:        user.Public(),
	}, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID string, oldPassword string, newPassword string) error {
	if !strongEnoughPassword(newPassword) {
		return apierror.Validation("password must be 8-72 characters", "new_password")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.PasswordHash == nil || !s.hasher.Verify(oldPassword, *user.PasswordHash) {
		return apierror.Unauthorized("old password does not match")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	return s.users.UpdatePassword(ctx, userID, hash)
}

func (s *AuthService) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	return s.users.FindByID(ctx, userID)
}
