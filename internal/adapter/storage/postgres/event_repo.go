package postgres

import (
	"context"
	"errors"
	"fmt"

	"expense-settlement/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EventRepo implements ports.EventRepository.
type EventRepo struct {
	pool Pool
}

// NewEventRepo creates a new EventRepo.
func NewEventRepo(pool Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

// GetByID fetches an event by UUID.
func (r *EventRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	query := `SELECT id, name, default_currency, created_at FROM events WHERE id = $1`

	e := &domain.Event{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&e.ID, &e.Name, &e.DefaultCurrency, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}
