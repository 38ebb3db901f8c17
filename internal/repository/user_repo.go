package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"club-portal/internal/model"
	"club-portal/pkg/apierror"
)

const userColumns = `id, email, username, password_hash, wechat_openid, role,
        email_verified, nickname, avatar_url, last_login_at, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.WeChatOpenID, &u.Role,
		&u.EmailVerified, &u.Nickname, &u.AvatarURL, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email)))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`,
		strings.TrimSpace(username)))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByOpenID(ctx context.Context, openID string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE wechat_openid = $1`, openID))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by openid: %w", err)
	}
	return u, nil
}

// Create persists a new user. Uniqueness of email, username and wechat_openid
// is enforced by the database so concurrent registrations have exactly one
// winner; losers get a ConflictError naming the field.
func (r *UserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, username, password_hash, wechat_openid, role, email_verified, nickname)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+userColumns,
		u.ID, u.Email, u.Username, u.PasswordHash, u.WeChatOpenID, u.Role, u.EmailVerified, u.Nickname)

	created, err := scanUser(row)
	if err != nil {
		if conflict := mapUniqueViolation(err); conflict != nil {
			return model.User{}, conflict
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		userID, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET last_login_at = $2 WHERE id = $1`,
		userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

// LinkOpenID binds a WeChat openid onto an existing account. The conditional
// WHERE plus the unique index make concurrent binds of the same openid fail
// instead of overwriting the first winner.
func (r *UserRepository) LinkOpenID(ctx context.Context, userID string, openID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET wechat_openid = $2, updated_at = $3
		 WHERE id = $1 AND wechat_openid IS NULL`,
		userID, openID, time.Now().UTC())
	if err != nil {
		if conflict := mapUniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("link openid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.Conflict("account already has a linked wechat identity", "openid")
	}
	return nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, userID string, role string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET role = $2, updated_at = $3 WHERE id = $1`,
		userID, role, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateAvatarURL(ctx context.Context, userID string, avatarURL string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET avatar_url = $2, updated_at = $3 WHERE id = $1`,
		userID, avatarURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update avatar url: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]model.PublicUser, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY lower(username)`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.PublicUser, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u.Public())
	}
	return users, rows.Err()
}

func mapUniqueViolation(err error) *apierror.APIError {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}

	switch pgErr.ConstraintName {
	case "users_email_key":
		return apierror.Conflict("email already registered", "email")
	case "users_username_key":
		return apierror.Conflict("username already taken", "username")
	case "users_wechat_openid_key":
		return apierror.Conflict("wechat identity already bound to another account", "openid")
	}
	return apierror.Conflict("duplicate value", pgErr.ConstraintName)
}
