package service

import (
	"context"

	"expense-settlement/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// mockTx implements pgx.Tx for testing
type mockTx struct {
	pgx.Tx
	committed bool
}

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error {
	m.committed = true
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	event  *domain.Event
	roster []domain.Participant
	users  []uuid.UUID
}

// newFixture builds a EUR event with n participants, each linked to a user.
func newFixture(names ...string) fixture {
	f := fixture{event: &domain.Event{ID: uuid.New(), Name: "Lisbon trip", DefaultCurrency: "EUR"}}
	for _, name := range names {
		userID := uuid.New()
		f.users = append(f.users, userID)
		f.roster = append(f.roster, domain.Participant{
			ID:      uuid.New(),
			EventID: f.event.ID,
			UserID:  &userID,
			Name:    name,
		})
	}
	return f
}

func (f fixture) pid(i int) uuid.UUID { return f.roster[i].ID }

func (f fixture) expense(amount, currency, rate string, payer int, shares ...string) domain.Expense {
	e := domain.Expense{
		ID:             uuid.New(),
		EventID:        f.event.ID,
		Amount:         dec(amount),
		Currency:       currency,
		PaidBy:         f.pid(payer),
		Category:       domain.ExpenseCategoryGeneral,
		SplitMethod:    domain.SplitMethodManual,
		ConversionRate: dec(rate),
	}
	for i, s := range shares {
		e.Shares = append(e.Shares, domain.ExpenseShare{ExpenseID: e.ID, ParticipantID: f.pid(i), Amount: dec(s)})
	}
	return e
}
