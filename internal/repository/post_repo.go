package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"club-portal/internal/model"
)

type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

func (r *PostRepository) Create(ctx context.Context, p model.Post) (model.Post, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO posts (id, author_id, title, body)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		p.ID, p.AuthorID, p.Title, p.Body).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Post{}, fmt.Errorf("create post: %w", err)
	}
	return p, nil
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (model.Post, error) {
	var p model.Post
	err := r.pool.QueryRow(ctx,
		`SELECT id, author_id, title, body, deleted_at, created_at, updated_at
		 FROM posts WHERE id = $1 AND deleted_at IS NULL`, id).
		Scan(&p.ID, &p.AuthorID, &p.Title, &p.Body, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Post{}, model.ErrPostNotFound
	}
	if err != nil {
		return model.Post{}, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

func (r *PostRepository) List(ctx context.Context, limit int, offset int) ([]model.Post, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, author_id, title, body, deleted_at, created_at, updated_at
		 FROM posts WHERE deleted_at IS NULL
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Body, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *PostRepository) Update(ctx context.Context, p model.Post) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE posts SET title = $2, body = $3, updated_at = $4
		 WHERE id = $1 AND deleted_at IS NULL`,
		p.ID, p.Title, p.Body, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPostNotFound
	}
	return nil
}

func (r *PostRepository) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE posts SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPostNotFound
	}
	return nil
}
