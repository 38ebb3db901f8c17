package model

import "time"

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type WeChatLoginRequest struct {
	Code string `json:"code"`
}

// WeChatLinkRequest completes a pending link. Either Username (create a new
// account bound to the openid) or Email+Password (bind onto an existing local
// account) must be supplied.
type WeChatLinkRequest struct {
	OpenID     string `json:"openid"`
	SessionKey string `json:"session_key"`
	Username   string `json:"username"`
	Nickname   string `json:"nickname"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

type CreatePostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type UpdatePostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
}
