package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"club-portal/internal/middleware"
	"club-portal/internal/model"
	"club-portal/internal/service"
	"club-portal/pkg/apierror"
)

type PostHandler struct {
	posts *service.PostService
}

func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	var payload model.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.Validation("invalid JSON body", ""))
		return
	}

	post, err := h.posts.Create(r.Context(), user.ID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, post, nil)
}

// List serves both visitors and members; members get their own posts flagged.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	viewerID := ""
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		viewerID = user.ID
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	posts, err := h.posts.List(r.Context(), viewerID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, posts, nil)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(r.Context(), chi.URLParam(r, "post_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, post, nil)
}

// Update runs behind the ownership gate, which already loaded the post.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	post, ok := middleware.ResourceFromContext(r.Context()).(model.Post)
	if !ok {
		writeError(w, model.ErrPostNotFound)
		return
	}

	var payload model.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.Validation("invalid JSON body", ""))
		return
	}

	updated, err := h.posts.Update(r.Context(), post, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated, nil)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	post, ok := middleware.ResourceFromContext(r.Context()).(model.Post)
	if !ok {
		writeError(w, model.ErrPostNotFound)
		return
	}

	if err := h.posts.Delete(r.Context(), post.ID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}
