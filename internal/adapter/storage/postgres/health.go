package postgres

import (
	"context"
	"errors"
	"fmt"
)

// ErrSchemaNotMigrated is returned by the health check when the database is
// reachable but the settlement tables are missing.
var ErrSchemaNotMigrated = errors.New("settlement schema not migrated")

// expense_shares is created last by the initial migration.
const schemaProbeSQL = `SELECT to_regclass('expense_shares') IS NOT NULL`

// HealthCheck reports whether PostgreSQL is reachable and migrated.
type HealthCheck struct {
	pool Pool
}

func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

// Ping runs a catalog lookup for the expense tables, so a fresh database
// without migrations reports unhealthy instead of failing on first request.
func (h *HealthCheck) Ping(ctx context.Context) error {
	var migrated bool
	if err := h.pool.QueryRow(ctx, schemaProbeSQL).Scan(&migrated); err != nil {
		return fmt.Errorf("postgres health: %w", err)
	}
	if !migrated {
		return ErrSchemaNotMigrated
	}
	return nil
}

func (h *HealthCheck) Name() string {
	return "postgresql"
}
