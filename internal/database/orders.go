package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/order"
)

// DB is the subset of *pgxpool.Pool the repository needs.
// Satisfied by *pgxpool.Pool; narrow interface for testability.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// OrderRepository implements order.Store on PostgreSQL.
type OrderRepository struct {
	order.Broadcaster
	db DB
}

var _ order.Store = (*OrderRepository)(nil)

func NewOrderRepository(db DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, number, order_number, items, subtotal, discount_pct, discount_amount,
	tax, tip, total, order_type, table_label, customer, delivery_address, payment_method,
	payment_status, amount_received, change_due, status, priority, staff, branch, notes,
	created_at, updated_at, revision`

func (r *OrderRepository) Place(ctx context.Context, o order.Order) (order.Order, error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return order.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&o.Number); err != nil {
		return order.Order{}, fmt.Errorf("next order number: %w", err)
	}
	o.OrderNumber = order.FormatNumber(o.Number)
	o.Revision = 1

	items, err := json.Marshal(o.Items)
	if err != nil {
		return order.Order{}, fmt.Errorf("encode items: %w", err)
	}
	var num numerics
	args := []any{
		o.ID, o.Number, o.OrderNumber, items,
		num.of(o.Subtotal), num.of(o.DiscountPct), num.of(o.DiscountAmount),
		num.of(o.Tax), num.of(o.Tip), num.of(o.Total),
		o.Type, o.Table, o.Customer, o.DeliveryAddress, o.PaymentMethod,
		o.PaymentStatus, num.of(o.AmountReceived), num.of(o.ChangeDue),
		o.Status, o.Priority, o.Staff, o.Branch, o.Notes,
		o.CreatedAt, o.UpdatedAt, o.Revision,
	}
	if num.err != nil {
		return order.Order{}, num.err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return order.Order{}, order.ErrDuplicateOrder
		}
		return order.Order{}, fmt.Errorf("insert order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return order.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	placed := normalise(o)
	r.Publish(order.EventPlaced, placed)
	return placed, nil
}

func (r *OrderRepository) Get(ctx context.Context, id uuid.UUID) (order.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, order.ErrOrderNotFound
		}
		return order.Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// List returns orders in placement order.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.db.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}

// Update locks the row for the duration of fn so concurrent writers serialise.
func (r *OrderRepository) Update(ctx context.Context, id uuid.UUID, fn func(*order.Order) error) (order.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return order.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	cur, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, order.ErrOrderNotFound
		}
		return order.Order{}, fmt.Errorf("lock order: %w", err)
	}

	next := cur.Clone()
	if err := fn(&next); err != nil {
		return order.Order{}, err
	}
	next.ID, next.Number, next.OrderNumber, next.CreatedAt = cur.ID, cur.Number, cur.OrderNumber, cur.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	next.Revision = cur.Revision + 1

	items, err := json.Marshal(next.Items)
	if err != nil {
		return order.Order{}, fmt.Errorf("encode items: %w", err)
	}
	var num numerics
	args := []any{
		next.ID, items,
		num.of(next.Subtotal), num.of(next.DiscountPct), num.of(next.DiscountAmount),
		num.of(next.Tax), num.of(next.Tip), num.of(next.Total),
		next.Type, next.Table, next.Customer, next.DeliveryAddress, next.PaymentMethod,
		next.PaymentStatus, num.of(next.AmountReceived), num.of(next.ChangeDue),
		next.Status, next.Priority, next.Staff, next.Branch, next.Notes, next.UpdatedAt,
		next.Revision,
	}
	if num.err != nil {
		return order.Order{}, num.err
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders SET
			items = $2, subtotal = $3, discount_pct = $4, discount_amount = $5, tax = $6,
			tip = $7, total = $8, order_type = $9, table_label = $10, customer = $11,
			delivery_address = $12, payment_method = $13, payment_status = $14,
			amount_received = $15, change_due = $16, status = $17, priority = $18,
			staff = $19, branch = $20, notes = $21, updated_at = $22, revision = $23
		WHERE id = $1`, args...)
	if err != nil {
		return order.Order{}, fmt.Errorf("update order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return order.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	next = normalise(next)
	r.Publish(order.EventUpdated, next)
	return next, nil
}

func scanOrder(row pgx.Row) (order.Order, error) {
	var o order.Order
	var items []byte
	var subtotal, discountPct, discountAmount, tax, tip pgtype.Numeric
	var total, amountReceived, changeDue pgtype.Numeric
	err := row.Scan(
		&o.ID, &o.Number, &o.OrderNumber, &items,
		&subtotal, &discountPct, &discountAmount, &tax, &tip, &total,
		&o.Type, &o.Table, &o.Customer, &o.DeliveryAddress, &o.PaymentMethod,
		&o.PaymentStatus, &amountReceived, &changeDue,
		&o.Status, &o.Priority, &o.Staff, &o.Branch, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt, &o.Revision,
	)
	if err != nil {
		return order.Order{}, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return order.Order{}, fmt.Errorf("decode items: %w", err)
	}
	o.Subtotal = numericToDecimal(subtotal)
	o.DiscountPct = numericToDecimal(discountPct)
	o.DiscountAmount = numericToDecimal(discountAmount)
	o.Tax = numericToDecimal(tax)
	o.Tip = numericToDecimal(tip)
	o.Total = numericToDecimal(total)
	o.AmountReceived = numericToDecimal(amountReceived)
	o.ChangeDue = numericToDecimal(changeDue)
	return o, nil
}

// normalise mirrors what a round trip through NUMERIC(12,2) and TIMESTAMPTZ
// would return, so published events match a subsequent Get.
func normalise(o order.Order) order.Order {
	o = o.Clone()
	o.Subtotal = o.Subtotal.Round(2)
	o.DiscountPct = o.DiscountPct.Round(2)
	o.DiscountAmount = o.DiscountAmount.Round(2)
	o.Tax = o.Tax.Round(2)
	o.Tip = o.Tip.Round(2)
	o.Total = o.Total.Round(2)
	o.AmountReceived = o.AmountReceived.Round(2)
	o.ChangeDue = o.ChangeDue.Round(2)
	o.CreatedAt = o.CreatedAt.Truncate(time.Microsecond)
	o.UpdatedAt = o.UpdatedAt.Truncate(time.Microsecond)
	return o
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// numerics converts decimals to query arguments and keeps the first
// conversion error.
type numerics struct {
	err error
}

// of encodes d exactly. Amounts are rounded to cents before they get here
// and percentages are limited to two decimals, matching NUMERIC(_,2).
func (n *numerics) of(d decimal.Decimal) pgtype.Numeric {
	var out pgtype.Numeric
	if err := out.Scan(d.String()); err != nil && n.err == nil {
		n.err = fmt.Errorf("encode numeric %s: %w", d, err)
	}
	return out
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
