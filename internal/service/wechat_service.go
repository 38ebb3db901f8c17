package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"club-portal/internal/model"
	"club-portal/internal/wechat"
	"club-portal/pkg/apierror"
)

// CodeExchanger is the collaborator contract with the external OAuth
// provider: one call trading an authorization code for an identity.
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, code string) (wechat.Session, error)
}

type openIDStore interface {
	UserStore
	FindByOpenID(ctx context.Context, openID string) (model.User, error)
}

// WeChatService reconciles WeChat identities with local accounts: returning
// members are authenticated directly, unknown openids come back as a pending
// link the client must complete in a second request.
type WeChatService struct {
	exchanger CodeExchanger
	users     openIDStore
	tokens    *TokenService
	hasher    *PasswordHasher
}

func NewWeChatService(exchanger CodeExchanger, users openIDStore, tokens *TokenService, hasher *PasswordHasher) *WeChatService {
	return &WeChatService{exchanger: exchanger, users: users, tokens: tokens, hasher: hasher}
}

func (s *WeChatService) LoginWithCode(ctx context.Context, code string) (model.WeChatLoginResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return model.WeChatLoginResult{}, apierror.Validation("code is required", "code")
	}

	session, err := s.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		return model.WeChatLoginResult{}, apierror.ExternalAuth("wechat login failed, please try again", err.Error())
	}

	user, err := s.users.FindByOpenID(ctx, session.OpenID)
	if errors.Is(err, model.ErrUserNotFound) {
		// No local account yet; nothing is persisted until the client
		// completes the linkage.
		return model.WeChatLoginResult{
			NeedsLinking: true,
			Pending:      &model.PendingLink{OpenID: session.OpenID, SessionKey: session.SessionKey},
		}, nil
	}
	if err != nil {
		return model.WeChatLoginResult{}, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		return model.WeChatLoginResult{}, err
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return model.WeChatLoginResult{}, err
	}

	return model.WeChatLoginResult{Tokens: &pair}, nil
}

// CompleteLink consumes a pending link. With email+password it binds the
// openid onto that existing account; otherwise it creates a new account bound
// to the openid. Either way a concurrent bind of the same openid loses with a
// conflict, never a silent overwrite.
func (s *WeChatService) CompleteLink(ctx context.Context, req model.WeChatLinkRequest) (model.TokenPair, error) {
	openID := strings.TrimSpace(req.OpenID)
	if openID == "" {
		return model.TokenPair{}, apierror.Validation("openid is required", "openid")
	}
	if strings.TrimSpace(req.SessionKey) == "" {
		return model.TokenPair{}, apierror.Validation("session_key is required", "session_key")
	}

	if strings.TrimSpace(req.Email) != "" || req.Password != "" {
		return s.linkExisting(ctx, openID, req.Email, req.Password)
	}
	return s.createLinked(ctx, openID, req.Username, req.Nickname)
}

func (s *WeChatService) linkExisting(ctx context.Context, openID string, email string, password string) (model.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.TokenPair{}, apierror.Unauthorized("invalid credentials")
		}
		return model.TokenPair{}, err
	}

	if user.PasswordHash == nil || !s.hasher.Verify(password, *user.PasswordHash) {
		return model.TokenPair{}, apierror.Unauthorized("invalid credentials")
	}

	if err := s.users.LinkOpenID(ctx, user.ID, openID); err != nil {
		return model.TokenPair{}, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		return model.TokenPair{}, err
	}

	user.WeChatOpenID = &openID
	return s.tokens.IssuePair(user)
}

func (s *WeChatService) createLinked(ctx context.Context, openID string, username string, nickname string) (model.TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.TokenPair{}, apierror.Validation("username is required", "username")
	}
	if !validUsername(username) {
		return model.TokenPair{}, apierror.Validation("username must be 3-32 characters of letters, digits, '-' or '_'", "username")
	}

	user, err := s.users.Create(ctx, model.User{
		ID:           uuid.NewString(),
		Username:     username,
		WeChatOpenID: &openID,
		Role:         model.RoleUser,
		Nickname:     strings.TrimSpace(nickname),
	})
	if err != nil {
		return model.TokenPair{}, err
	}

	return s.tokens.IssuePair(user)
}
