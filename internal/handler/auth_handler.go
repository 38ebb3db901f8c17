package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"club-portal/internal/model"
	"club-portal/internal/service"
	"club-portal/pkg/apierror"
)

type AuthHandler struct {
	auth   *service.AuthService
	wechat *service.WeChatService
}

func NewAuthHandler(auth *service.AuthService, wechat *service.WeChatService) *AuthHandler {
	return &AuthHandler{auth: auth, wechat: wechat}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.Validation("invalid JSON body", ""))
		return
	}

	tokens, err := h.auth.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, tokens, nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.Validation("invalid JSON body", ""))
		return
	}

	tokens, err := h.auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tokens, nil)
}

func (h *AuthHandler) WeChatLogin(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.WeChatLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.Validation("invalid JSON body", ""))
		return
	}

	result, err := h.wechat.LoginWithCode(r.Context(), payload.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}

func (h *AuthHandler) WeChatLink(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.WeChatLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.Validation("invalid JSON body", ""))
		return
	}

	tokens, err := h.wechat.CompleteLink(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, tokens, nil)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.Validation("invalid JSON body", ""))
		return
	}

	payload.RefreshToken = strings.TrimSpace(payload.RefreshToken)
	if payload.RefreshToken == "" {
		writeError(w, apierror.Validation("refresh_token is required", "refresh_token"))
		return
	}

	tokens, err := h.auth.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tokens, nil)
}

// Logout is a client-side operation: tokens are stateless and there is no
// server-side revocation list.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{"logged_out": true}, nil)
}
