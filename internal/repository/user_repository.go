package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/sunapee-sound/community-backend/internal/model"
	"github.com/sunapee-sound/community-backend/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrUserExists = errors.New("user with this email or username already exists")

// Create hashes the password, inserts the user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, username, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role) VALUES (?,?,?,?)",
		username, email, hash, role)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrUserExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ExistsByEmailOrUsername reports whether either identifier is taken.
func (r *UserRepo) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM users WHERE email=? OR username=? LIMIT 1",
		strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(username)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// GetActiveByEmail fetches an active user by normalized email.
func (r *UserRepo) GetActiveByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,email,password_hash,role,active,created_at FROM users WHERE email=? AND active=1 LIMIT 1",
		email).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt)
	return u, err
}

// GetActiveByID fetches an active user by id.
func (r *UserRepo) GetActiveByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,email,password_hash,role,active,created_at FROM users WHERE id=? AND active=1 LIMIT 1",
		id).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt)
	return u, err
}

// SetRole changes a user's role.  Used by the CLI to promote the first admin.
func (r *UserRepo) SetRole(ctx context.Context, email, role string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	var id uint64
	if err := r.DB.QueryRowContext(ctx, "SELECT id FROM users WHERE email=? LIMIT 1", email).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET role=? WHERE id=?", role, id)
	return err
}
