package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseCategory classifies an expense for display.
type ExpenseCategory string

const (
	ExpenseCategoryPlace   ExpenseCategory = "place"
	ExpenseCategoryGeneral ExpenseCategory = "general"
)

// Valid reports whether c is a known category.
func (c ExpenseCategory) Valid() bool {
	return c == ExpenseCategoryPlace || c == ExpenseCategoryGeneral
}

// SplitMethod records how the shares of an expense were produced.
type SplitMethod string

const (
	SplitMethodEqual  SplitMethod = "equal"
	SplitMethodManual SplitMethod = "manual"
)

var (
	ErrNonPositiveAmount = errors.New("expense amount must be positive")
	ErrNonPositiveRate   = errors.New("conversion rate must be positive")
	ErrInvalidCategory   = errors.New("unknown expense category")
)

// Expense is one payment made by a participant on behalf of the group.
// ConversionRate converts Amount into the event's ledger currency and is fixed
// at creation so historical settlements stay stable.
type Expense struct {
	ID             uuid.UUID       `json:"id"`
	EventID        uuid.UUID       `json:"event_id"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	PaidBy         uuid.UUID       `json:"paid_by"`
	Category       ExpenseCategory `json:"category"`
	SplitMethod    SplitMethod     `json:"split_method"`
	ConversionRate decimal.Decimal `json:"conversion_rate"`
	RateUnreliable bool            `json:"rate_unreliable"`
	CreatedBy      uuid.UUID       `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	Shares         []ExpenseShare  `json:"shares"`
}

// ExpenseShare is the amount of one expense owed by one participant, in the
// expense's own currency.
type ExpenseShare struct {
	ExpenseID     uuid.UUID       `json:"expense_id"`
	ParticipantID uuid.UUID       `json:"participant_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// Validate checks the invariants that hold for every stored expense.
func (e *Expense) Validate() error {
	if !e.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if !e.ConversionRate.IsPositive() {
		return ErrNonPositiveRate
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}
