package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pagebound/bookstore-api/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type pgUserRepo struct{ pool *pgxpool.Pool }

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepo{pool: pool}
}

func (r *pgUserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = uuid.New()
	q := `INSERT INTO users (id, email, password_hash, first_name, last_name, role, created_at, updated_at)
		  VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		  RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q,
		user.ID, user.Email, user.Password, user.FirstName, user.LastName, string(user.Role),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *pgUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `email = $1`, email)
}

func (r *pgUserRepo) getOne(ctx context.Context, cond string, arg any) (*model.User, error) {
	q := `SELECT id, email, password_hash, first_name, last_name, role, created_at, updated_at
		  FROM users WHERE ` + cond
	user := &model.User{}
	var rawRole string
	err := r.pool.QueryRow(ctx, q, arg).Scan(
		&user.ID, &user.Email, &user.Password, &user.FirstName, &user.LastName,
		&rawRole, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	// A role outside the closed set is data corruption and surfaces here
	// instead of silently defaulting.
	if user.Role, err = model.ParseRole(rawRole); err != nil {
		return nil, fmt.Errorf("user %s: %w", user.ID, err)
	}
	return user, nil
}
