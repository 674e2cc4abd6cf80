package order

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("order not found")

type Repository interface {
	CreateWithItems(ctx context.Context, total decimal.Decimal, orderDate time.Time, lines map[int64]int) (*Order, error)
	LastOrderNumber(ctx context.Context) (string, error)
	GetByID(ctx context.Context, id int64) (*Order, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Order, error)
	ItemsByOrder(ctx context.Context, orderID int64) ([]Item, error)
	AllItems(ctx context.Context) ([]Item, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

// CreateWithItems persists the order and all its line items in one
// transaction: either everything lands or nothing does. The order number is
// derived inside the transaction from the most recently dated order; it is
// not reserved ahead of the insert, so two concurrent checkouts can compute
// the same number.
func (r *PGRepo) CreateWithItems(ctx context.Context, total decimal.Decimal, orderDate time.Time, lines map[int64]int) (*Order, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var last string
	err = tx.QueryRow(ctx, `
		SELECT order_number FROM orders ORDER BY order_date DESC LIMIT 1
	`).Scan(&last)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	o := &Order{
		OrderNumber: NextNumber(last, orderDate.Year()),
		TotalAmount: total,
		OrderDate:   orderDate,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (order_number, total_amount, order_date)
		VALUES ($1, $2, $3)
		RETURNING id
	`, o.OrderNumber, total.StringFixed(2), orderDate).Scan(&o.ID)
	if err != nil {
		return nil, err
	}

	// deterministic insertion order
	ids := make([]int64, 0, len(lines))
	for id := range lines {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, itemID := range ids {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, item_id, quantity)
			VALUES ($1, $2, $3)
		`, o.ID, itemID, lines[itemID]); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PGRepo) LastOrderNumber(ctx context.Context) (string, error) {
	var last string
	err := r.db.QueryRow(ctx, `
		SELECT order_number FROM orders ORDER BY order_date DESC LIMIT 1
	`).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return last, err
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		o     Order
		total string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, order_number, total_amount::text, order_date
		FROM orders WHERE id=$1
	`, id).Scan(&o.ID, &o.OrderNumber, &total, &o.OrderDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PGRepo) GetByIDs(ctx context.Context, ids []int64) ([]Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, order_number, total_amount::text, order_date
		FROM orders WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var (
			o     Order
			total string
		)
		if err := rows.Scan(&o.ID, &o.OrderNumber, &total, &o.OrderDate); err != nil {
			return nil, err
		}
		if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PGRepo) ItemsByOrder(ctx context.Context, orderID int64) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, item_id, quantity
		FROM order_items WHERE order_id=$1
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrderItems(rows)
}

func (r *PGRepo) AllItems(ctx context.Context) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, item_id, quantity
		FROM order_items ORDER BY order_id, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrderItems(rows)
}

func scanOrderItems(rows pgx.Rows) ([]Item, error) {
	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ItemID, &it.Quantity); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
