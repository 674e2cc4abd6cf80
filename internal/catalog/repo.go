// Package catalog provides the repository interface and PostgreSQL
// implementation for the storefront item catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("item not found")
	ErrBadSort  = errors.New("unknown sort key")
)

const (
	SortNone      = "NO"
	SortPriceAsc  = "PRICE_ASC"
	SortPriceDesc = "PRICE_DESC"
	SortAlphaAsc  = "ALPHA_ASC"
	SortAlphaDesc = "ALPHA_DESC"
)

// orderBy maps sort keys to ORDER BY clauses; keys outside this map are
// rejected, never interpolated.
var orderBy = map[string]string{
	SortNone:      "id",
	SortPriceAsc:  "price ASC, id",
	SortPriceDesc: "price DESC, id",
	SortAlphaAsc:  "LOWER(title) ASC, id",
	SortAlphaDesc: "LOWER(title) DESC, id",
}

type Query struct {
	Q      string
	Sort   string
	Limit  int
	Offset int
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Item, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Item, error)
	PriceByID(ctx context.Context, id int64) (decimal.Decimal, error)
	List(ctx context.Context, q Query) ([]Item, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) GetByID(ctx context.Context, id int64) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		it    Item
		price string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, title, description, img_path, price::text
		FROM items WHERE id=$1
	`, id).Scan(&it.ID, &it.Title, &it.Description, &it.ImgPath, &price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if it.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("item %d: bad price %q: %w", id, price, err)
	}
	return &it, nil
}

func (r *PGRepo) GetByIDs(ctx context.Context, ids []int64) ([]Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, title, description, img_path, price::text
		FROM items WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func (r *PGRepo) PriceByID(ctx context.Context, id int64) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var price string
	err := r.db.QueryRow(ctx, `SELECT price::text FROM items WHERE id=$1`, id).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, err
	}
	return decimal.NewFromString(price)
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	sort := q.Sort
	if sort == "" {
		sort = SortNone
	}
	clause, ok := orderBy[sort]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBadSort, q.Sort)
	}

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	search := strings.TrimSpace(q.Q)

	rows, err := r.db.Query(ctx, `
		SELECT id, title, description, img_path, price::text
		FROM items
		WHERE ($1 = '' OR title ILIKE '%'||$1||'%' OR description ILIKE '%'||$1||'%')
		ORDER BY `+clause+`
		LIMIT $2 OFFSET $3
	`, search, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func scanItems(rows pgx.Rows) ([]Item, error) {
	var out []Item
	for rows.Next() {
		var (
			it    Item
			price string
		)
		if err := rows.Scan(&it.ID, &it.Title, &it.Description, &it.ImgPath, &price); err != nil {
			return nil, err
		}
		var err error
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("item %d: bad price %q: %w", it.ID, price, err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
