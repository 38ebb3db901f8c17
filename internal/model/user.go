package model

import "time"

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// User is the durable identity record. Email and PasswordHash are nil for
// pure-WeChat accounts until the member links a local credential; WeChatOpenID
// is nil for password-only accounts. The schema guarantees at least one of
// PasswordHash/WeChatOpenID is present.
type User struct {
	ID            string     `json:"id"`
	Email         *string    `json:"email,omitempty"`
	Username      string     `json:"username"`
	PasswordHash  *string    `json:"-"`
	WeChatOpenID  *string    `json:"-"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"email_verified"`
	Nickname      string     `json:"nickname,omitempty"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PublicUser is the sanitized projection returned to clients. It never carries
// the password hash or the WeChat openid.
type PublicUser struct {
	ID            string     `json:"id"`
	Email         string     `json:"email,omitempty"`
	Username      string     `json:"username"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"email_verified"`
	Nickname      string     `json:"nickname,omitempty"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (u User) Public() PublicUser {
	email := ""
	if u.Email != nil {
		email = *u.Email
	}

	return PublicUser{
		ID:            u.ID,
		Email:         email,
		Username:      u.Username,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		Nickname:      u.Nickname,
		AvatarURL:     u.AvatarURL,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

type AuthClaims struct {
	UserID  string `json:"sub"`
	Type    string `json:"typ"`
	TokenID string `json:"jti"`
}

type TokenPair struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int64      `json:"expires_in"`
	User         PublicUser `json:"user"`
}

// PendingLink is the transient result of a successful WeChat code exchange
// that no local account is bound to yet. It is returned to the client and
// consumed by the linking endpoint; nothing is persisted server-side.
type PendingLink struct {
	OpenID     string `json:"openid"`
	SessionKey string `json:"session_key"`
}

// WeChatLoginResult is either an authenticated token pair or a pending link.
type WeChatLoginResult struct {
	NeedsLinking bool         `json:"needs_linking"`
	Tokens       *TokenPair   `json:"tokens,omitempty"`
	Pending      *PendingLink `json:"pending,omitempty"`
}
