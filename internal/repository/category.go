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

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	List(ctx context.Context, includeInactive bool) ([]model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgCategoryRepo struct{ pool *pgxpool.Pool }

func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &pgCategoryRepo{pool: pool}
}

func (r *pgCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	category.ID = uuid.New()
	q := `INSERT INTO categories (id, name, description, sort_order, active, created_at, updated_at)
		  VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q,
		category.ID, category.Name, category.Description, category.SortOrder, category.Active,
	).Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *pgCategoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	c := &model.Category{}
	err := r.pool.QueryRow(ctx,
		`SELECT c.id, c.name, c.description, c.sort_order, c.active, c.created_at, c.updated_at,
				(SELECT COUNT(*) FROM books b WHERE b.category_id = c.id)
		 FROM categories c WHERE c.id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.SortOrder, &c.Active, &c.CreatedAt, &c.UpdatedAt, &c.BookCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// List returns categories in sort order with their derived book counts.
func (r *pgCategoryRepo) List(ctx context.Context, includeInactive bool) ([]model.Category, error) {
	q := `SELECT c.id, c.name, c.description, c.sort_order, c.active, c.created_at, c.updated_at,
				 (SELECT COUNT(*) FROM books b WHERE b.category_id = c.id)
		  FROM categories c`
	if !includeInactive {
		q += ` WHERE c.active`
	}
	q += ` ORDER BY c.sort_order ASC, c.id ASC`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.SortOrder, &c.Active,
			&c.CreatedAt, &c.UpdatedAt, &c.BookCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *pgCategoryRepo) Update(ctx context.Context, category *model.Category) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE categories SET name=$2, description=$3, sort_order=$4, active=$5, updated_at=NOW()
		 WHERE id=$1 RETURNING updated_at`,
		category.ID, category.Name, category.Description, category.SortOrder, category.Active,
	).Scan(&category.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

func (r *pgCategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
