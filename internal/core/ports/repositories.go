package ports

import (
	"context"

	"expense-settlement/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Read methods return (nil, nil) when the row does not exist.

// EventRepository defines persistence operations for events.
type EventRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error)
}

// ParticipantRepository defines persistence operations for event rosters.
type ParticipantRepository interface {
	// ListByEvent returns the roster in join order.
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Participant, error)
}

// ExpenseRepository defines persistence operations for expenses and their shares.
// Methods accepting pgx.Tx write the expense row and its share rows atomically.
type ExpenseRepository interface {
	Create(ctx context.Context, tx pgx.Tx, expense *domain.Expense) error
	GetByID(ctx context.Context, eventID, id uuid.UUID) (*domain.Expense, error)
	// ListByEvent returns the event's expenses, oldest first, with shares loaded.
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Expense, error)
	Delete(ctx context.Context, tx pgx.Tx, eventID, id uuid.UUID) error
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
