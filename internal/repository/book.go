package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pagebound/bookstore-api/internal/model"
	"github.com/pagebound/bookstore-api/internal/query"
)

type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	Search(ctx context.Context, filter query.BookFilter) ([]model.Book, int, error)
	Update(ctx context.Context, book *model.Book) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetStock(ctx context.Context, id uuid.UUID, stock int) error
	DebitStock(ctx context.Context, tx pgx.Tx, bookID uuid.UUID, quantity int) error
	CreditStock(ctx context.Context, tx pgx.Tx, bookID uuid.UUID, quantity int) error
}

type pgBookRepo struct{ pool *pgxpool.Pool }

func NewBookRepository(pool *pgxpool.Pool) BookRepository {
	return &pgBookRepo{pool: pool}
}

const bookColumns = `id, title, author, publisher, category_id, description, image_url,
	price, stock, rating, sold_count, active, created_at, updated_at`

func scanBook(row pgx.Row, b *model.Book) error {
	return row.Scan(
		&b.ID, &b.Title, &b.Author, &b.Publisher, &b.CategoryID, &b.Description,
		&b.ImageURL, &b.Price, &b.Stock, &b.Rating, &b.SoldCount, &b.Active,
		&b.CreatedAt, &b.UpdatedAt,
	)
}

func (r *pgBookRepo) Create(ctx context.Context, book *model.Book) error {
	if book.Price.IsNegative() || book.Stock < 0 {
		return fmt.Errorf("%w: negative price or stock", ErrInvalidArgument)
	}
	book.ID = uuid.New()
	q := `INSERT INTO books (id, title, author, publisher, category_id, description, image_url,
				price, stock, rating, active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
			  RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q,
		book.ID, book.Title, book.Author, book.Publisher, book.CategoryID,
		book.Description, book.ImageURL, book.Price, book.Stock, book.Rating, book.Active,
	).Scan(&book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

func (r *pgBookRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	b := &model.Book{}
	row := r.pool.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	if err := scanBook(row, b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

// Search materializes the filtered catalog eagerly, in the filter's sort
// order. Predicates and ordering come from the query compiler; nothing from
// the filter is interpolated into the statement text.
func (r *pgBookRepo) Search(ctx context.Context, filter query.BookFilter) ([]model.Book, int, error) {
	var b query.Builder
	filter.Apply(&b)

	var total int
	countQ := `SELECT COUNT(*) FROM books` + b.Clause()
	if err := r.pool.QueryRow(ctx, countQ, b.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	listQ := `SELECT ` + bookColumns + ` FROM books` + b.Clause() + filter.Sort.OrderBy() +
		` LIMIT ` + b.Bind(filter.Limit) + ` OFFSET ` + b.Bind(filter.Offset)

	rows, err := r.pool.Query(ctx, listQ, b.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("search books: %w", err)
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		var book model.Book
		if err := scanBook(rows, &book); err != nil {
			return nil, 0, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("search books: %w", err)
	}
	return books, total, nil
}

// Update rewrites the descriptive fields of a book. Stock and sold_count are
// deliberately not part of the statement: they only ever move through
// SetStock, DebitStock and CreditStock, so a read-modify-write edit cannot
// overwrite a checkout debit that committed in between. The committed
// counters are read back into the model instead.
func (r *pgBookRepo) Update(ctx context.Context, book *model.Book) error {
	if book.Price.IsNegative() {
		return fmt.Errorf("%w: negative price", ErrInvalidArgument)
	}
	q := `UPDATE books SET title=$2, author=$3, publisher=$4, category_id=$5, description=$6,
				image_url=$7, price=$8, rating=$9, active=$10, updated_at=NOW()
			  WHERE id=$1 RETURNING stock, sold_count, updated_at`
	err := r.pool.QueryRow(ctx, q,
		book.ID, book.Title, book.Author, book.Publisher, book.CategoryID,
		book.Description, book.ImageURL, book.Price, book.Rating, book.Active,
	).Scan(&book.Stock, &book.SoldCount, &book.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update book: %w", err)
	}
	return nil
}

// Delete refuses to remove a book referenced by order line items; the
// foreign key restricts it and the violation surfaces as a storage error.
// Line items carry their own snapshot, so catalog deletion of unreferenced
// books never loses order history.
func (r *pgBookRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStock is the administrative override; it bypasses sold-count.
func (r *pgBookRepo) SetStock(ctx context.Context, id uuid.UUID, stock int) error {
	if stock < 0 {
		return fmt.Errorf("%w: stock %d", ErrInvalidArgument, stock)
	}
	ct, err := r.pool.Exec(ctx,
		`UPDATE books SET stock = $2, updated_at = NOW() WHERE id = $1`, id, stock,
	)
	if err != nil {
		return fmt.Errorf("set stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DebitStock decrements stock and increments sold_count in one statement.
// It runs on the caller's transaction and performs none of its own, so an
// order can batch it with header and line-item writes. The stock >= quantity
// guard in the WHERE clause keeps stock non-negative under concurrent
// checkouts.
func (r *pgBookRepo) DebitStock(ctx context.Context, tx pgx.Tx, bookID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: debit quantity %d", ErrInvalidArgument, quantity)
	}
	ct, err := tx.Exec(ctx,
		`UPDATE books SET stock = stock - $2, sold_count = sold_count + $2, updated_at = NOW()
		 WHERE id = $1 AND stock >= $2`,
		bookID, quantity,
	)
	if err != nil {
		return fmt.Errorf("debit stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM books WHERE id = $1)`, bookID).Scan(&exists); err != nil {
			return fmt.Errorf("debit stock: %w", err)
		}
		if !exists {
			return fmt.Errorf("book %s: %w", bookID, ErrNotFound)
		}
		return fmt.Errorf("book %s: %w", bookID, ErrInsufficientStock)
	}
	return nil
}

// CreditStock reverses a debit when a debited order is cancelled.
func (r *pgBookRepo) CreditStock(ctx context.Context, tx pgx.Tx, bookID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: credit quantity %d", ErrInvalidArgument, quantity)
	}
	// A zero row count means the book left the catalog after the order was
	// placed; the cancel must still succeed on the order side.
	_, err := tx.Exec(ctx,
		`UPDATE books SET stock = stock + $2, sold_count = GREATEST(sold_count - $2, 0), updated_at = NOW()
		 WHERE id = $1`,
		bookID, quantity,
	)
	if err != nil {
		return fmt.Errorf("credit stock: %w", err)
	}
	return nil
}
