package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pagebound/bookstore-api/internal/model"
	"github.com/pagebound/bookstore-api/internal/query"
)

// StockLedger is the slice of the catalog store an order transaction needs:
// tx-scoped stock mutation so debits and credits commit or roll back with
// the order itself.
type StockLedger interface {
	DebitStock(ctx context.Context, tx pgx.Tx, bookID uuid.UUID, quantity int) error
	CreditStock(ctx context.Context, tx pgx.Tx, bookID uuid.UUID, quantity int) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetByCode(ctx context.Context, code string) (*model.Order, error)
	List(ctx context.Context, filter query.OrderFilter) ([]model.Order, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next model.OrderStatus, staff *model.User) error
}

type pgOrderRepo struct {
	pool  *pgxpool.Pool
	stock StockLedger
}

func NewOrderRepository(pool *pgxpool.Pool, stock StockLedger) OrderRepository {
	return &pgOrderRepo{pool: pool, stock: stock}
}

const orderCodePrefix = "ORD"

// formatOrderCode renders the human-readable daily-sequential code,
// e.g. ORD20250101001 for the first order of 2025-01-01. The sequence is
// padded to three digits and widens naturally past the 999th order of a day
// (ORD202501011000); uniqueness comes from the order_code constraint, and
// codes sort chronologically only within the same sequence width.
func formatOrderCode(day time.Time, seq int) string {
	return fmt.Sprintf("%s%s%03d", orderCodePrefix, day.Format("20060102"), seq)
}

// nextOrderCode counts today's orders inside the caller's transaction and
// takes the next sequence number. This read-then-use pattern is only safe
// because orders.order_code is unique: a concurrent checkout that wins the
// race makes the insert fail with ErrDuplicateOrderCode and the service
// retries the whole transaction.
func nextOrderCode(ctx context.Context, tx pgx.Tx, day time.Time) (string, error) {
	prefix := orderCodePrefix + day.Format("20060102")
	var count int
	err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE order_code LIKE $1`, prefix+"%",
	).Scan(&count)
	if err != nil {
		return "", fmt.Errorf("count today's orders: %w", err)
	}
	return formatOrderCode(day, count+1), nil
}

func isDuplicateOrderCode(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		pgErr.ConstraintName == "orders_order_code_key"
}

// Create persists the order header, its line items and the stock debits as
// one unit of work. A failure at any step rolls back every prior write; a
// partial order is never observable.
func (r *pgOrderRepo) Create(ctx context.Context, order *model.Order) error {
	if len(order.Items) == 0 {
		return fmt.Errorf("%w: order without line items", ErrInvalidArgument)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	order.Code, err = nextOrderCode(ctx, tx, time.Now().UTC())
	if err != nil {
		return err
	}

	order.ID = uuid.New()
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (id, order_code, customer_id, customer_name, customer_email,
			customer_phone, shipping_address, total_amount, shipping_fee, discount_amount,
			final_amount, status, payment_method, payment_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		order.ID, order.Code, order.CustomerID, order.CustomerName, order.CustomerEmail,
		order.CustomerPhone, order.ShippingAddress, order.TotalAmount, order.ShippingFee,
		order.DiscountAmount, order.FinalAmount, string(order.Status),
		string(order.PaymentMethod), string(order.PaymentStatus),
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if isDuplicateOrderCode(err) {
			return fmt.Errorf("order code %s: %w", order.Code, ErrDuplicateOrderCode)
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.ID = uuid.New()
		item.OrderID = order.ID
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, book_id, title, author, image_url,
				unit_price, quantity, line_total)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			item.ID, item.OrderID, item.BookID, item.Title, item.Author, item.ImageURL,
			item.UnitPrice, item.Quantity, item.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}

		if err = r.stock.DebitStock(ctx, tx, item.BookID, item.Quantity); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

const orderColumns = `id, order_code, customer_id, customer_name, customer_email, customer_phone,
	shipping_address, total_amount, shipping_fee, discount_amount, final_amount, status,
	payment_method, payment_status, staff_id, staff_name, created_at, updated_at, delivered_at`

func scanOrder(row pgx.Row, o *model.Order) error {
	var status, paymentMethod, paymentStatus string
	err := row.Scan(
		&o.ID, &o.Code, &o.CustomerID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.ShippingAddress, &o.TotalAmount, &o.ShippingFee, &o.DiscountAmount, &o.FinalAmount,
		&status, &paymentMethod, &paymentStatus, &o.StaffID, &o.StaffName,
		&o.CreatedAt, &o.UpdatedAt, &o.DeliveredAt,
	)
	if err != nil {
		return err
	}
	if o.Status, err = model.ParseOrderStatus(status); err != nil {
		return err
	}
	if o.PaymentMethod, err = model.ParsePaymentMethod(paymentMethod); err != nil {
		return err
	}
	if o.PaymentStatus, err = model.ParsePaymentStatus(paymentStatus); err != nil {
		return err
	}
	return nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *pgOrderRepo) GetByCode(ctx context.Context, code string) (*model.Order, error) {
	return r.getOne(ctx, `order_code = $1`, code)
}

func (r *pgOrderRepo) getOne(ctx context.Context, cond string, arg any) (*model.Order, error) {
	o := &model.Order{}
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+cond, arg)
	if err := scanOrder(row, o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, book_id, title, author, image_url, unit_price, quantity, line_total
		 FROM order_items WHERE order_id = $1 ORDER BY id`, o.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.BookID, &item.Title, &item.Author,
			&item.ImageURL, &item.UnitPrice, &item.Quantity, &item.LineTotal); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.OrderID = o.ID
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}

// List returns order headers (no line items) matching the filter, compiled
// by the query package.
func (r *pgOrderRepo) List(ctx context.Context, filter query.OrderFilter) ([]model.Order, int, error) {
	var b query.Builder
	filter.Apply(&b)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+b.Clause(), b.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	q := `SELECT ` + orderColumns + ` FROM orders` + b.Clause() + filter.Sort.OrderBy() +
		` LIMIT ` + b.Bind(filter.Limit) + ` OFFSET ` + b.Bind(filter.Offset)

	rows, err := r.pool.Query(ctx, q, b.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// UpdateStatus applies one state-machine edge in its own transaction. The
// current status row is locked so concurrent transitions serialize; an edge
// outside the allowed set fails with ErrInvalidTransition. Moving to
// Delivered stamps the delivery time, a staff actor stamps the assignment,
// and cancellation credits every debited line item back to stock.
func (r *pgOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, next model.OrderStatus, staff *model.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var rawStatus string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&rawStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("lock order: %w", err)
	}

	current, err := model.ParseOrderStatus(rawStatus)
	if err != nil {
		return fmt.Errorf("order %s: %w", id, err)
	}
	if !current.CanTransitionTo(next) {
		return fmt.Errorf("%s -> %s: %w", current, next, ErrInvalidTransition)
	}

	q := `UPDATE orders SET status = $2, updated_at = NOW()`
	args := []any{id, string(next)}
	if next == model.OrderStatusDelivered {
		q += `, delivered_at = NOW()`
	}
	if staff != nil {
		q += fmt.Sprintf(`, staff_id = $%d, staff_name = $%d`, len(args)+1, len(args)+2)
		args = append(args, staff.ID, staff.FullName())
	}
	q += ` WHERE id = $1`
	if _, err = tx.Exec(ctx, q, args...); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if next == model.OrderStatusCancelled {
		if err = r.restock(ctx, tx, id); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit status update: %w", err)
	}
	return nil
}

// restock reverses the checkout debits of a cancelled order.
func (r *pgOrderRepo) restock(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	rows, err := tx.Query(ctx,
		`SELECT book_id, quantity FROM order_items WHERE order_id = $1`, orderID,
	)
	if err != nil {
		return fmt.Errorf("load items for restock: %w", err)
	}

	type line struct {
		bookID   uuid.UUID
		quantity int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.bookID, &l.quantity); err != nil {
			rows.Close()
			return fmt.Errorf("scan restock line: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load items for restock: %w", err)
	}

	for _, l := range lines {
		if err := r.stock.CreditStock(ctx, tx, l.bookID, l.quantity); err != nil {
			return err
		}
	}
	return nil
}
