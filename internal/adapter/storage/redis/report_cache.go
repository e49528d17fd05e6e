package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"expense-settlement/internal/core/domain"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// ReportCache implements ports.ReportCache. Reports are stored as JSON under
// one key per event.
type ReportCache struct {
	client *goredis.Client
	prefix string
}

// NewReportCache creates a Redis-backed settlement report cache.
func NewReportCache(client *goredis.Client) *ReportCache {
	return &ReportCache{
		client: client,
		prefix: "settlement:report:",
	}
}

func (c *ReportCache) key(eventID uuid.UUID) string {
	return c.prefix + eventID.String()
}

// Get returns the cached report, or nil on a miss.
func (c *ReportCache) Get(ctx context.Context, eventID uuid.UUID) (*domain.SettlementReport, error) {
	raw, err := c.client.Get(ctx, c.key(eventID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis report get: %w", err)
	}

	var report domain.SettlementReport
	if err := json.Unmarshal(raw, &report); err != nil {
		// A payload we cannot read is treated as a miss and dropped.
		c.client.Del(ctx, c.key(eventID))
		return nil, nil
	}
	return &report, nil
}

// Set stores the report for ttl.
func (c *ReportCache) Set(ctx context.Context, report *domain.SettlementReport, ttl time.Duration) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := c.client.Set(ctx, c.key(report.EventID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis report set: %w", err)
	}
	return nil
}

// Invalidate removes the cached report for an event.
func (c *ReportCache) Invalidate(ctx context.Context, eventID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(eventID)).Err(); err != nil {
		return fmt.Errorf("redis report invalidate: %w", err)
	}
	return nil
}
