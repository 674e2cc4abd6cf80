// Package cart holds the session-scoped shopping cart in Redis: one hash per
// session, item id -> quantity. Zero quantities are treated as absent.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MikeMC777/webstore-ecom/internal/redisx"
)

const (
	ActionPlus   = "PLUS"
	ActionMinus  = "MINUS"
	ActionDelete = "DELETE"
)

var ErrUnknownAction = errors.New("unknown cart action")

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, ttl: redisx.TTLCart}
}

func key(session string) string { return fmt.Sprintf(redisx.KeyCart, session) }

// Items returns the cart lines with positive quantity. A missing cart reads
// as empty.
func (s *Store) Items(ctx context.Context, session string) (map[int64]int, error) {
	raw, err := s.rdb.HGetAll(ctx, key(session)).Result()
	if err != nil {
		return nil, err
	}
	return parseCounts(raw), nil
}

// UpdateCount applies a PLUS/MINUS/DELETE action to one cart line. MINUS
// floors at zero rather than going negative.
func (s *Store) UpdateCount(ctx context.Context, session string, itemID int64, action string) error {
	k := key(session)
	field := strconv.FormatInt(itemID, 10)

	switch action {
	case ActionPlus:
		if err := s.rdb.HIncrBy(ctx, k, field, 1).Err(); err != nil {
			return err
		}
	case ActionMinus:
		n, err := s.rdb.HIncrBy(ctx, k, field, -1).Result()
		if err != nil {
			return err
		}
		if n < 0 {
			if err := s.rdb.HSet(ctx, k, field, 0).Err(); err != nil {
				return err
			}
		}
	case ActionDelete:
		if err := s.rdb.HDel(ctx, k, field).Err(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	return s.rdb.Expire(ctx, k, s.ttl).Err()
}

func (s *Store) Remove(ctx context.Context, session string, itemID int64) error {
	return s.rdb.HDel(ctx, key(session), strconv.FormatInt(itemID, 10)).Err()
}

func (s *Store) Clear(ctx context.Context, session string) error {
	return s.rdb.Del(ctx, key(session)).Err()
}

// Count is the total number of units across the cart, zero-filtered.
func (s *Store) Count(ctx context.Context, session string) (int, error) {
	lines, err := s.Items(ctx, session)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, qty := range lines {
		total += qty
	}
	return total, nil
}

// parseCounts converts a redis hash into cart lines, dropping entries that
// are unparseable or not strictly positive.
func parseCounts(raw map[string]string) map[int64]int {
	out := make(map[int64]int, len(raw))
	for field, value := range raw {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		qty, err := strconv.Atoi(value)
		if err != nil || qty <= 0 {
			continue
		}
		out[id] = qty
	}
	return out
}
