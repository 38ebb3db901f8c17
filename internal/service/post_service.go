package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"club-portal/internal/model"
	"club-portal/internal/repository"
	"club-portal/pkg/apierror"
)

type PostService struct {
	posts *repository.PostRepository
}

func NewPostService(posts *repository.PostRepository) *PostService {
	return &PostService{posts: posts}
}

func (s *PostService) Create(ctx context.Context, authorID string, req model.CreatePostRequest) (model.Post, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return model.Post{}, apierror.Validation("title is required", "title")
	}

	return s.posts.Create(ctx, model.Post{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		Title:    title,
		Body:     req.Body,
	})
}

// List returns recent posts. When a viewer is known their own posts are
// flagged so the client can show edit controls.
func (s *PostService) List(ctx context.Context, viewerID string, limit int, offset int) ([]model.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	posts, err := s.posts.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	if viewerID != "" {
		for i := range posts {
			posts[i].Mine = posts[i].AuthorID == viewerID
		}
	}
	return posts, nil
}

func (s *PostService) Get(ctx context.Context, id string) (model.Post, error) {
	return s.posts.FindByID(ctx, id)
}

func (s *PostService) Update(ctx context.Context, post model.Post, req model.UpdatePostRequest) (model.Post, error) {
	if title := strings.TrimSpace(req.Title); title != "" {
		post.Title = title
	}
	if req.Body != "" {
		post.Body = req.Body
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return model.Post{}, err
	}
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, id string) error {
	return s.posts.SoftDelete(ctx, id)
}
