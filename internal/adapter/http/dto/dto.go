package dto

// Amounts travel as decimal strings so no precision is lost in JSON.

// ShareInput is one participant's share of an expense.
type ShareInput struct {
	ParticipantID string `json:"participant_id" binding:"required,uuid"`
	Amount        string `json:"amount" binding:"required,decimal_amount"`
}

// PreviewRequest is the current state of an expense form. Total may be blank
// or unparsable while the user is typing; the preview then shows zero shares.
type PreviewRequest struct {
	Total        string       `json:"total" binding:"max=32"`
	Participants []string     `json:"participants" binding:"required,dive,uuid"`
	Method       string       `json:"method" binding:"required,oneof=equal manual"`
	Shares       []ShareInput `json:"shares" binding:"omitempty,dive"`
	Locked       []string     `json:"locked" binding:"omitempty,dive,uuid"`
	Edit         *ShareInput  `json:"edit,omitempty"`
}

// PreviewResponse is the allocation shown back to the form.
type PreviewResponse struct {
	Method     string          `json:"method"`
	Shares     []ShareResponse `json:"shares"`
	Locked     []string        `json:"locked"`
	Sum        string          `json:"sum"`
	Difference string          `json:"difference"`
	Mismatch   bool            `json:"mismatch"`
	Valid      bool            `json:"valid"`
}

// CreateExpenseRequest is the request body for recording an expense. Shares
// are only read for the manual split method and are kept as typed.
type CreateExpenseRequest struct {
	Description    string       `json:"description" binding:"max=200"`
	Amount         string       `json:"amount" binding:"required,decimal_amount"`
	Currency       string       `json:"currency" binding:"required,currency_code"`
	PaidBy         string       `json:"paid_by" binding:"required,uuid"`
	Category       string       `json:"category" binding:"omitempty,oneof=place general"`
	SplitMethod    string       `json:"split_method" binding:"required,oneof=equal manual"`
	Participants   []string     `json:"participants" binding:"omitempty,dive,uuid"`
	Shares         []ShareInput `json:"shares" binding:"omitempty,dive"`
	ConversionRate string       `json:"conversion_rate" binding:"max=32"`
}

// ShareResponse is one participant's share.
type ShareResponse struct {
	ParticipantID string `json:"participant_id"`
	Amount        string `json:"amount"`
}

// ExpenseResponse is a stored expense.
type ExpenseResponse struct {
	ID             string          `json:"id"`
	EventID        string          `json:"event_id"`
	Description    string          `json:"description"`
	Amount         string          `json:"amount"`
	Currency       string          `json:"currency"`
	PaidBy         string          `json:"paid_by"`
	Category       string          `json:"category"`
	SplitMethod    string          `json:"split_method"`
	ConversionRate string          `json:"conversion_rate"`
	RateUnreliable bool            `json:"rate_unreliable"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      string          `json:"created_at"`
	Shares         []ShareResponse `json:"shares"`
}

// CreateExpenseResponse is a newly stored expense plus its split check.
type CreateExpenseResponse struct {
	Expense       ExpenseResponse `json:"expense"`
	ShareMismatch bool            `json:"share_mismatch"`
	Difference    string          `json:"difference"`
}

// BalanceResponse is a participant's net position.
type BalanceResponse struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	Amount        string `json:"amount"`
}

// TransferResponse is a proposed payment.
type TransferResponse struct {
	From     string `json:"from"`
	FromName string `json:"from_name"`
	To       string `json:"to"`
	ToName   string `json:"to_name"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// WarningsResponse lists expense IDs per non-fatal report condition.
type WarningsResponse struct {
	UnreliableConversions []string `json:"unreliable_conversions"`
	ShareMismatches       []string `json:"share_mismatches"`
	ImplicitEqualSplits   []string `json:"implicit_equal_splits"`
	ExcludedExpenses      []string `json:"excluded_expenses"`
	UnknownParticipants   []string `json:"unknown_participants"`
}

// SettlementResponse is the settlement report as seen by one participant.
type SettlementResponse struct {
	EventID        string             `json:"event_id"`
	Currency       string             `json:"currency"`
	ViewerID       string             `json:"viewer_id"`
	ExpenseCount   int                `json:"expense_count"`
	TotalSpent     string             `json:"total_spent"`
	Balances       []BalanceResponse  `json:"balances"`
	MyTransfers    []TransferResponse `json:"my_transfers"`
	OtherTransfers []TransferResponse `json:"other_transfers"`
	Warnings       WarningsResponse   `json:"warnings"`
	GeneratedAt    string             `json:"generated_at"`
}
