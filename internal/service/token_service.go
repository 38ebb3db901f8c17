package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"club-portal/internal/model"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenService issues and validates stateless HS256 session tokens. Nothing
// is stored server-side; validity is proven by the signature and expiry alone.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(secret string, accessTTL time.Duration, refreshTTL time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (s *TokenService) IssueAccessToken(userID string) (string, error) {
	return s.sign(userID, TokenTypeAccess, s.accessTTL)
}

func (s *TokenService) IssueRefreshToken(userID string) (string, error) {
	return s.sign(userID, TokenTypeRefresh, s.refreshTTL)
}

// IssuePair mints an access+refresh pair for a user and attaches the
// sanitized user object, the shape every login-style endpoint returns.
func (s *TokenService) IssuePair(user model.User) (model.TokenPair, error) {
	accessToken, err := s.IssueAccessToken(user.ID)
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, err := s.IssueRefreshToken(user.ID)
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		User:         user.Public(),
	}, nil
}

func (s *TokenService) sign(userID string, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"typ": tokenType,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	return token.SignedString(s.secret)
}

// Verify checks signature, expiry and token type. Expired tokens are reported
// distinctly from tampered or malformed ones so callers can offer a refresh
// instead of a full re-login.
func (s *TokenService) Verify(tokenString string, expectedType string) (*model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, model.ErrTokenInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrTokenExpired
		}
		return nil, model.ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, model.ErrTokenInvalid
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrTokenInvalid
	}

	claims := &model.AuthClaims{}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Type, _ = claimsMap["typ"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)

	if claims.UserID == "" {
		return nil, model.ErrTokenInvalid
	}
	if expectedType != "" && claims.Type != expectedType {
		return nil, model.ErrTokenInvalid
	}

	return claims, nil
}
