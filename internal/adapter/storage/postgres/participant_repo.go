package postgres

import (
	"context"
	"fmt"

	"expense-settlement/internal/core/domain"

	"github.com/google/uuid"
)

// ParticipantRepo implements ports.ParticipantRepository.
type ParticipantRepo struct {
	pool Pool
}

// NewParticipantRepo creates a new ParticipantRepo.
func NewParticipantRepo(pool Pool) *ParticipantRepo {
	return &ParticipantRepo{pool: pool}
}

// ListByEvent returns the event roster in join order.
func (r *ParticipantRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Participant, error) {
	query := `SELECT id, event_id, user_id, name, email, created_at
		FROM participants WHERE event_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ID, &p.EventID, &p.UserID, &p.Name, &p.Email, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan participant row: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participant rows: %w", err)
	}
	return participants, nil
}
