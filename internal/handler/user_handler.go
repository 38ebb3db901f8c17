package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"club-portal/internal/middleware"
	"club-portal/internal/model"
	"club-portal/internal/repository"
	"club-portal/internal/service"
	"club-portal/pkg/apierror"
)

type UserHandler struct {
	auth          *service.AuthService
	avatars       *service.AvatarService
	users         *repository.UserRepository
	maxAvatarSize int64
}

func NewUserHandler(auth *service.AuthService, avatars *service.AvatarService, users *repository.UserRepository, maxAvatarSize int64) *UserHandler {
	return &UserHandler{auth: auth, avatars: avatars, users: users, maxAvatarSize: maxAvatarSize}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	writeSuccess(w, http.StatusOK, user.Public(), nil)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	var payload model.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.Validation("invalid JSON body", ""))
		return
	}

	if err := h.auth.ChangePassword(r.Context(), user.ID, payload.OldPassword, payload.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"changed": true}, nil)
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	if err := r.ParseMultipartForm(h.maxAvatarSize); err != nil {
		writeError(w, apierror.Validation("invalid multipart body", err.Error()))
		return
	}

	file, _, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, apierror.Validation("avatar file is required", "avatar"))
		return
	}
	defer file.Close()

	avatarURL, err := h.avatars.Upload(r.Context(), user.ID, file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"avatar_url": avatarURL}, nil)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, users, nil)
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.Validation("invalid JSON body", ""))
		return
	}

	role := strings.ToLower(strings.TrimSpace(payload.Role))
	if role != model.RoleUser && role != model.RoleModerator && role != model.RoleAdmin {
		writeError(w, apierror.Validation("role must be user, moderator or admin", "role"))
		return
	}

	userID := chi.URLParam(r, "user_id")
	if err := h.users.UpdateRole(r.Context(), userID, role); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"id": userID, "role": role}, nil)
}
