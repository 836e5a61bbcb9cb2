package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"task_tracker/internal/apperr"
	"task_tracker/internal/config"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const Backend = "redis"

// SetupRedis builds a client from the REDIS_* settings and checks the
// connection.
func SetupRedis(ctx context.Context, redisCfg *config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%s", redisCfg.Host, redisCfg.Port)

	db, err := strconv.Atoi(redisCfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis DB number %q: %w", redisCfg.RedisDB, err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: redisCfg.RedisPassword,
		DB:       db,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, storeError("ping", err)
	}

	logrus.WithField("addr", addr).Info("Connected to Redis")
	return rdb, nil
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: redis %s: %w", apperr.ErrStoreUnavailable, op, err)
}
