package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ParticipantBalance is a participant's net position in the ledger currency.
type ParticipantBalance struct {
	ParticipantID uuid.UUID       `json:"participant_id"`
	DisplayName   string          `json:"display_name"`
	Amount        decimal.Decimal `json:"amount"`
}

// SettlementTransfer is a proposed payment between two participants.
type SettlementTransfer struct {
	From     uuid.UUID       `json:"from"`
	FromName string          `json:"from_name"`
	To       uuid.UUID       `json:"to"`
	ToName   string          `json:"to_name"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// Involves reports whether the participant pays or receives this transfer.
func (t SettlementTransfer) Involves(participantID uuid.UUID) bool {
	return t.From == participantID || t.To == participantID
}

// ReportWarnings lists the non-fatal conditions found while computing a
// report. Each entry is an expense ID.
type ReportWarnings struct {
	UnreliableConversions []uuid.UUID `json:"unreliable_conversions"`
	ShareMismatches       []uuid.UUID `json:"share_mismatches"`
	ImplicitEqualSplits   []uuid.UUID `json:"implicit_equal_splits"`
	ExcludedExpenses      []uuid.UUID `json:"excluded_expenses"`
	UnknownParticipants   []uuid.UUID `json:"unknown_participants"`
}

// Empty reports whether no warning was raised.
func (w ReportWarnings) Empty() bool {
	return len(w.UnreliableConversions) == 0 &&
		len(w.ShareMismatches) == 0 &&
		len(w.ImplicitEqualSplits) == 0 &&
		len(w.ExcludedExpenses) == 0 &&
		len(w.UnknownParticipants) == 0
}

// SettlementReport is the derived ledger view of one event. It is recomputed
// from the expense set and never edited in place.
type SettlementReport struct {
	EventID      uuid.UUID            `json:"event_id"`
	Currency     string               `json:"currency"`
	ExpenseCount int                  `json:"expense_count"`
	TotalSpent   decimal.Decimal      `json:"total_spent"`
	Balances     []ParticipantBalance `json:"balances"`
	Transfers    []SettlementTransfer `json:"transfers"`
	Warnings     ReportWarnings       `json:"warnings"`
	GeneratedAt  time.Time            `json:"generated_at"`
}

// ViewerReport splits a report's transfers into those the viewer takes part
// in and those between other participants.
type ViewerReport struct {
	*SettlementReport
	ViewerID       uuid.UUID            `json:"viewer_id"`
	MyTransfers    []SettlementTransfer `json:"my_transfers"`
	OtherTransfers []SettlementTransfer `json:"other_transfers"`
}

// ForViewer partitions the report's transfers for one participant.
func (r *SettlementReport) ForViewer(viewerID uuid.UUID) *ViewerReport {
	out := &ViewerReport{
		SettlementReport: r,
		ViewerID:         viewerID,
		MyTransfers:      []SettlementTransfer{},
		OtherTransfers:   []SettlementTransfer{},
	}
	for _, t := range r.Transfers {
		if t.Involves(viewerID) {
			out.MyTransfers = append(out.MyTransfers, t)
		} else {
			out.OtherTransfers = append(out.OtherTransfers, t)
		}
	}
	return out
}
