package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"expense-settlement/internal/core/domain"
	"expense-settlement/internal/core/ports"
	"expense-settlement/internal/core/settlement"
	"expense-settlement/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ExpenseServiceImpl implements ports.ExpenseService.
type ExpenseServiceImpl struct {
	eventRepo       ports.EventRepository
	participantRepo ports.ParticipantRepository
	expenseRepo     ports.ExpenseRepository
	reportCache     ports.ReportCache
	transactor      ports.DBTransactor
	log             zerolog.Logger
}

// NewExpenseService creates a new ExpenseServiceImpl.
func NewExpenseService(
	eventRepo ports.EventRepository,
	participantRepo ports.ParticipantRepository,
	expenseRepo ports.ExpenseRepository,
	reportCache ports.ReportCache,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *ExpenseServiceImpl {
	return &ExpenseServiceImpl{
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		expenseRepo:     expenseRepo,
		reportCache:     reportCache,
		transactor:      transactor,
		log:             log,
	}
}

// PreviewShares recomputes the shares of an expense form after an optional
// edit. It never fails on bad amounts: the returned state carries Valid=false
// and zeroed shares instead.
func (s *ExpenseServiceImpl) PreviewShares(_ context.Context, req ports.PreviewRequest) (*settlement.AllocationState, error) {
	if !req.Method.Valid() {
		return nil, apperror.ErrInvalidSplit(fmt.Sprintf("unknown split method %q", req.Method))
	}

	state := settlement.ResumeAllocationState(req.Total, req.Participants, req.Method, req.Shares, req.Locked)
	if req.Edit != nil {
		state = settlement.EditShare(state, req.Edit.ParticipantID, req.Edit.Amount)
	}
	return &state, nil
}

// CreateExpense validates, allocates and stores one expense with its shares.
// Share-sum mismatches and unreliable conversion rates are reported back but
// never block saving.
func (s *ExpenseServiceImpl) CreateExpense(ctx context.Context, req ports.CreateExpenseRequest) (*ports.ExpenseResult, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	if !req.Method.Valid() {
		return nil, apperror.ErrInvalidSplit(fmt.Sprintf("unknown split method %q", req.Method))
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return nil, apperror.ErrInvalidCurrency()
	}

	event, roster, err := s.loadMembership(ctx, req.EventID, req.UserID)
	if err != nil {
		return nil, err
	}

	onRoster := make(map[uuid.UUID]bool, len(roster))
	for _, p := range roster {
		onRoster[p.ID] = true
	}
	participants := req.Participants
	if len(participants) == 0 {
		participants = domain.ParticipantIDs(roster)
	}
	if !onRoster[req.PaidBy] {
		return nil, apperror.ErrUnknownParticipant()
	}
	for _, id := range append(append([]uuid.UUID(nil), participants...), req.Locked...) {
		if !onRoster[id] {
			return nil, apperror.ErrUnknownParticipant()
		}
	}

	conv := settlement.Normalize(req.Amount, currency, event.DefaultCurrency, req.ConversionRate)
	if conv.Unreliable {
		s.log.Warn().
			Str("event_id", event.ID.String()).
			Str("currency", currency).
			Str("ledger_currency", event.DefaultCurrency).
			Msg("missing or non-positive conversion rate, storing rate 1")
	}

	alloc := settlement.Allocate(settlement.AllocationRequest{
		Total:        req.Amount,
		Participants: participants,
		Method:       req.Method,
		Existing:     req.Shares,
		Locked:       req.Locked,
	})
	if !alloc.Valid {
		return nil, apperror.ErrInvalidSplit("shares could not be allocated")
	}

	expense := &domain.Expense{
		ID:             uuid.New(),
		EventID:        event.ID,
		Description:    strings.TrimSpace(req.Description),
		Amount:         req.Amount,
		Currency:       currency,
		PaidBy:         req.PaidBy,
		Category:       req.Category,
		SplitMethod:    domain.SplitMethod(req.Method),
		ConversionRate: conv.Rate,
		RateUnreliable: conv.Unreliable,
		CreatedBy:      req.UserID,
		CreatedAt:      time.Now().UTC(),
	}
	if expense.Category == "" {
		expense.Category = domain.ExpenseCategoryGeneral
	}
	for _, sh := range alloc.Shares {
		expense.Shares = append(expense.Shares, domain.ExpenseShare{
			ExpenseID:     expense.ID,
			ParticipantID: sh.ParticipantID,
			Amount:        sh.Amount,
		})
	}
	if err := expense.Validate(); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.expenseRepo.Create(ctx, dbTx, expense); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create expense: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	s.invalidateReport(ctx, event.ID)

	if alloc.Mismatch {
		s.log.Info().
			Str("expense_id", expense.ID.String()).
			Str("difference", alloc.Difference.String()).
			Msg("expense saved with share mismatch")
	}
	s.log.Info().
		Str("expense_id", expense.ID.String()).
		Str("event_id", event.ID.String()).
		Str("amount", expense.Amount.String()).
		Str("currency", expense.Currency).
		Msg("expense created")

	return &ports.ExpenseResult{
		Expense:    expense,
		Mismatch:   alloc.Mismatch,
		Difference: alloc.Difference,
	}, nil
}

// ListExpenses returns the event's expenses with their shares.
func (s *ExpenseServiceImpl) ListExpenses(ctx context.Context, eventID, userID uuid.UUID) ([]domain.Expense, error) {
	if _, _, err := s.loadMembership(ctx, eventID, userID); err != nil {
		return nil, err
	}

	expenses, err := s.expenseRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list expenses: %w", err))
	}
	if expenses == nil {
		expenses = []domain.Expense{}
	}
	return expenses, nil
}

// DeleteExpense removes an expense and its shares. Any participant of the
// event may delete.
func (s *ExpenseServiceImpl) DeleteExpense(ctx context.Context, eventID, expenseID, userID uuid.UUID) error {
	if _, _, err := s.loadMembership(ctx, eventID, userID); err != nil {
		return err
	}

	existing, err := s.expenseRepo.GetByID(ctx, eventID, expenseID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("get expense: %w", err))
	}
	if existing == nil {
		return apperror.ErrNotFound("expense")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.expenseRepo.Delete(ctx, dbTx, eventID, expenseID); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("delete expense: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	s.invalidateReport(ctx, eventID)

	s.log.Info().
		Str("expense_id", expenseID.String()).
		Str("event_id", eventID.String()).
		Msg("expense deleted")
	return nil
}

// loadMembership loads the event and its roster and checks that userID is
// one of its participants.
func (s *ExpenseServiceImpl) loadMembership(ctx context.Context, eventID, userID uuid.UUID) (*domain.Event, []domain.Participant, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, nil, apperror.ErrDatabaseError(fmt.Errorf("get event: %w", err))
	}
	if event == nil {
		return nil, nil, apperror.ErrNotFound("event")
	}

	roster, err := s.participantRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, apperror.ErrDatabaseError(fmt.Errorf("list participants: %w", err))
	}
	if domain.FindViewer(roster, userID) == nil {
		return nil, nil, apperror.ErrNotParticipant()
	}
	return event, roster, nil
}

// invalidateReport drops the cached report. Failure does not undo the write.
func (s *ExpenseServiceImpl) invalidateReport(ctx context.Context, eventID uuid.UUID) {
	if s.reportCache == nil {
		return
	}
	if err := s.reportCache.Invalidate(ctx, eventID); err != nil {
		s.log.Error().Err(err).Str("event_id", eventID.String()).Msg("failed to invalidate settlement report cache")
	}
}
