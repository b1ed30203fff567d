package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amercogo/MojKutakAdmin/internal/apperror"
	"github.com/amercogo/MojKutakAdmin/internal/db"
	"github.com/amercogo/MojKutakAdmin/internal/model"
	"github.com/google/uuid"
)

type DBUserRepository struct { // implements UserRepository
	db db.DB
}

var _ UserRepository = (*DBUserRepository)(nil)

func NewDBUserRepository(d db.DB) *DBUserRepository {
	return &DBUserRepository{db: d}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *DBUserRepository) CreateUser(ctx context.Context, email, passwordHash string) (*model.User, error) {
	user := &model.User{
		ID:           model.UserID(uuid.New().String()),
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := r.db.Exec(ctx, `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		string(user.ID), user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return user, nil
}

func (r *DBUserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, normalizeEmail(email))
}

func (r *DBUserRepository) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	return r.getOne(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, string(id))
}

func (r *DBUserRepository) getOne(ctx context.Context, query, arg string) (*model.User, error) {
	var u model.User
	var id string
	err := r.db.QueryRow(ctx, query, arg).Scan(&id, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", arg, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	u.ID = model.UserID(id)
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}
