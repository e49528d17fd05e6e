package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is a group of people sharing expenses. Its default currency is the
// ledger currency every balance and settlement is expressed in.
type Event struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	DefaultCurrency string    `json:"default_currency"`
	CreatedAt       time.Time `json:"created_at"`
}

// Participant is a member of one event. The ID is stable for the life of the
// event; UserID links the participant to an authenticated account, if any.
type Participant struct {
	ID        uuid.UUID  `json:"id"`
	EventID   uuid.UUID  `json:"event_id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Name      string     `json:"name"`
	Email     string     `json:"email,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// DisplayName is computed at read time: the name when set, otherwise the
// local part of the email address.
func (p *Participant) DisplayName() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	email := strings.TrimSpace(p.Email)
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	if email != "" {
		return email
	}
	return "Participant"
}

// IsUser reports whether the participant belongs to the given account.
func (p *Participant) IsUser(userID uuid.UUID) bool {
	return p.UserID != nil && *p.UserID == userID
}

// ParticipantIDs returns the IDs of participants in roster order.
func ParticipantIDs(participants []Participant) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(participants))
	for i := range participants {
		out = append(out, participants[i].ID)
	}
	return out
}

// FindViewer returns the participant linked to userID, or nil.
func FindViewer(participants []Participant, userID uuid.UUID) *Participant {
	for i := range participants {
		if participants[i].IsUser(userID) {
			return &participants[i]
		}
	}
	return nil
}
