package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// NewRedis connects the cache client used for rate and entitlement
// lookups. Redis is optional: with an empty URL the client is nil and
// every cached read falls through to Postgres.
func NewRedis(redisURL string, poolSize, minIdle int) (*redis.Client, error) {
	if redisURL == "" {
		log.Warn().Msg("redis url not configured, caching disabled")
		return nil, nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	opt.PoolSize = poolSize
	opt.MinIdleConns = minIdle
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, err
	}

	log.Info().Int("pool_size", poolSize).Msg("redis cache ready")
	return client, nil
}

// CloseRedis shuts the cache client down. Safe to call with nil.
func CloseRedis(client *redis.Client) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		log.Error().Err(err).Msg("redis close failed")
		return
	}
	log.Info().Msg("redis cache closed")
}
