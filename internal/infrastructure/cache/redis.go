package cache

import (
	"context"
	"fmt"
	"time"

	"clinic-appointment-service/config"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// NewRedisClient connects the token store. Redis only holds live access
// and refresh token records, so an unreachable instance is a startup error
// rather than something to retry around.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logrus.Infof("Connected to Redis at %s:%s", cfg.Host, cfg.Port)

	return client, nil
}
