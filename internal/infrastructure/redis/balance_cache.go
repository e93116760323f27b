package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	domaininv "github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/pkg/config"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

var _ inventory.BalanceCache = (*BalanceCache)(nil)

const keyPrefix = "stockledger:balance:"

// NewClient abre el cliente Redis y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// BalanceCache caché de saldos para pantallas. Los fallos de Redis se registran y se
// tratan como miss: el caché nunca interrumpe una lectura ni una escritura del ledger.
type BalanceCache struct {
	rdb goredis.Cmdable
	ttl time.Duration
	log *logger.Logger
}

// NewBalanceCache construye el caché. ttl acota cuánto puede quedar desactualizada una pantalla.
func NewBalanceCache(rdb goredis.Cmdable, ttl time.Duration, log *logger.Logger) *BalanceCache {
	if log == nil {
		log = logger.Nop()
	}
	return &BalanceCache{rdb: rdb, ttl: ttl, log: log}
}

func balanceKey(itemID, locationID string) string {
	return keyPrefix + itemID + ":" + locationID
}

// Get lee el saldo cacheado del par.
func (c *BalanceCache) Get(ctx context.Context, itemID, locationID string) (int64, bool) {
	qty, err := c.rdb.Get(ctx, balanceKey(itemID, locationID)).Int64()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn().Err(err).Msg("redis: lectura de saldo")
		}
		return 0, false
	}
	return qty, true
}

// Set guarda el saldo con TTL.
func (c *BalanceCache) Set(ctx context.Context, itemID, locationID string, qty int64) {
	if err := c.rdb.Set(ctx, balanceKey(itemID, locationID), qty, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("redis: escritura de saldo")
	}
}

// Invalidate borra los pares tocados por un movimiento confirmado.
func (c *BalanceCache) Invalidate(ctx context.Context, pairs []domaininv.Pair) {
	if len(pairs) == 0 {
		return
	}
	keys := make([]string, 0, len(pairs))
	for _, p := range pairs {
		keys = append(keys, balanceKey(p.ItemID, p.LocationID))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn().Err(err).Int("keys", len(keys)).Msg("redis: invalidación de saldos")
	}
}
