package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ordena-bot/server/internal/agent/model"
	errx "github.com/ordena-bot/server/internal/core/error"
	logx "github.com/ordena-bot/server/pkg/logger"
)

// RedisLedgerRepository appends finalized orders as JSON rows onto a Redis
// list. The list is the durable, append-only order ledger; nothing in the
// core reads it back.
type RedisLedgerRepository struct {
	rdb redis.Cmdable
	key string
}

func NewRedisLedgerRepository(rdb redis.Cmdable, key string) *RedisLedgerRepository {
	return &RedisLedgerRepository{rdb: rdb, key: key}
}

func (r *RedisLedgerRepository) Append(ctx context.Context, order *model.FinalizedOrder) error {
	b, err := json.Marshal(order)
	if err != nil {
		logx.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to marshal order row")
		return fmt.Errorf("marshal order: %w", err)
	}

	if err := r.rdb.RPush(ctx, r.key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", r.key).Msg("failed to push order row to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.LedgerRepository = (*RedisLedgerRepository)(nil)
