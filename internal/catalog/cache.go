package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MikeMC777/webstore-ecom/internal/redisx"
)

// CachedRepo is a read-through cache in front of a Repository. Only
// single-item gets are cached; the short TTL keeps stale prices bounded.
type CachedRepo struct {
	Repository
	rdb *redis.Client
	log *zap.SugaredLogger
}

func NewCachedRepo(repo Repository, rdb *redis.Client, log *zap.SugaredLogger) *CachedRepo {
	return &CachedRepo{Repository: repo, rdb: rdb, log: log}
}

func (c *CachedRepo) GetByID(ctx context.Context, id int64) (*Item, error) {
	key := fmt.Sprintf(redisx.KeyItem, id)

	if raw, err := c.rdb.Get(ctx, key).Result(); err == nil {
		var it Item
		if err := json.Unmarshal([]byte(raw), &it); err == nil {
			return &it, nil
		}
		// corrupt entry; fall through to the database
		_ = c.rdb.Del(ctx, key).Err()
	}

	it, err := c.Repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(it); err == nil {
		if err := c.rdb.Set(ctx, key, raw, redisx.TTLItem).Err(); err != nil {
			c.log.Warnw("item cache set failed", "item_id", id, "err", err)
		}
	}
	return it, nil
}
