package ports

import (
	"context"
	"time"

	"expense-settlement/internal/core/domain"
	"expense-settlement/internal/core/settlement"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TokenService handles JWT token operations. Tokens identify the account
// behind a request; the viewer participant is resolved per event.
type TokenService interface {
	Generate(userID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
}

// ReportCache stores computed settlement reports per event.
type ReportCache interface {
	// Get returns nil on a cache miss.
	Get(ctx context.Context, eventID uuid.UUID) (*domain.SettlementReport, error)
	Set(ctx context.Context, report *domain.SettlementReport, ttl time.Duration) error
	Invalidate(ctx context.Context, eventID uuid.UUID) error
}

// AuditService records audited writes without blocking the caller.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// --- Service Ports (Business Logic) ---

// ExpenseService defines expense entry and share allocation.
type ExpenseService interface {
	PreviewShares(ctx context.Context, req PreviewRequest) (*settlement.AllocationState, error)
	CreateExpense(ctx context.Context, req CreateExpenseRequest) (*ExpenseResult, error)
	ListExpenses(ctx context.Context, eventID, userID uuid.UUID) ([]domain.Expense, error)
	DeleteExpense(ctx context.Context, eventID, expenseID, userID uuid.UUID) error
}

// PreviewRequest is the state of an expense form plus the edit being made.
type PreviewRequest struct {
	Total        decimal.Decimal
	Participants []uuid.UUID
	Method       settlement.Method
	Shares       map[uuid.UUID]decimal.Decimal
	Locked       []uuid.UUID
	Edit         *ShareEdit
}

// ShareEdit is one manually typed share amount.
type ShareEdit struct {
	ParticipantID uuid.UUID
	Amount        decimal.Decimal
}

// CreateExpenseRequest holds validated input for recording an expense.
type CreateExpenseRequest struct {
	EventID     uuid.UUID
	UserID      uuid.UUID
	Description string
	Amount      decimal.Decimal
	Currency    string
	PaidBy      uuid.UUID
	Category    domain.ExpenseCategory
	Method      settlement.Method
	// Participants defaults to the whole roster when empty.
	Participants []uuid.UUID
	Shares       map[uuid.UUID]decimal.Decimal
	Locked       []uuid.UUID
	// ConversionRate is ignored for ledger-currency expenses.
	ConversionRate decimal.NullDecimal
}

// ExpenseResult is a stored expense plus the advisory flags raised while
// creating it. None of the flags blocks saving.
type ExpenseResult struct {
	Expense    *domain.Expense
	Mismatch   bool
	Difference decimal.Decimal
}

// SettlementService defines the per-event settlement report.
type SettlementService interface {
	GetReport(ctx context.Context, eventID, userID uuid.UUID) (*domain.ViewerReport, error)
}
