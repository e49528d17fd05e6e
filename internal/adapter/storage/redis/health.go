package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	healthKey = "settlement:health"
	healthTTL = 10 * time.Second
)

// HealthCheck reports whether Redis accepts writes. The report cache and the
// rate limiter both write, so a read-only replica counts as unhealthy.
type HealthCheck struct {
	client *goredis.Client
}

func NewHealthCheck(client *goredis.Client) *HealthCheck {
	return &HealthCheck{client: client}
}

// Ping writes a short-lived marker key.
func (h *HealthCheck) Ping(ctx context.Context) error {
	if err := h.client.Set(ctx, healthKey, time.Now().UTC().Unix(), healthTTL).Err(); err != nil {
		return fmt.Errorf("redis health: %w", err)
	}
	return nil
}

func (h *HealthCheck) Name() string {
	return "redis"
}
