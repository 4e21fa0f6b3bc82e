package db

import (
	"context"
	"time"

	"tasker/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

// ConnectRedis returns a client when addr is set and answers a ping, nil
// otherwise. Every Redis user has an in-process fallback, so failures are
// logged, not fatal.
func ConnectRedis(ctx context.Context, addr, password string, db int) *redis.Client {
	if addr == "" {
		logger.Info("redis disabled; using in-process fallbacks")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable; using in-process fallbacks", "addr", addr, "error", err)
		_ = client.Close()
		return nil
	}
	logger.Info("redis connected", "addr", addr)
	return client
}
