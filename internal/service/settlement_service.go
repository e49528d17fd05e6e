package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expense-settlement/internal/core/domain"
	"expense-settlement/internal/core/ports"
	"expense-settlement/internal/core/settlement"
	"expense-settlement/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// MissingSharesPolicy decides how an expense without share rows enters the
// ledger. Either way the expense is listed in the report warnings.
type MissingSharesPolicy string

const (
	// MissingSharesEqualAll splits the expense equally across the whole roster.
	MissingSharesEqualAll MissingSharesPolicy = "equal_all"
	// MissingSharesExclude leaves the expense out of the balances.
	MissingSharesExclude MissingSharesPolicy = "exclude"
)

const unknownParticipantName = "Unknown participant"

// SettlementOptions configures report computation.
type SettlementOptions struct {
	MissingShares MissingSharesPolicy
	// CacheTTL of zero disables report caching.
	CacheTTL time.Duration
}

// SettlementServiceImpl implements ports.SettlementService.
type SettlementServiceImpl struct {
	eventRepo       ports.EventRepository
	participantRepo ports.ParticipantRepository
	expenseRepo     ports.ExpenseRepository
	reportCache     ports.ReportCache
	opts            SettlementOptions
	log             zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(
	eventRepo ports.EventRepository,
	participantRepo ports.ParticipantRepository,
	expenseRepo ports.ExpenseRepository,
	reportCache ports.ReportCache,
	opts SettlementOptions,
	log zerolog.Logger,
) *SettlementServiceImpl {
	if opts.MissingShares == "" {
		opts.MissingShares = MissingSharesEqualAll
	}
	return &SettlementServiceImpl{
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		expenseRepo:     expenseRepo,
		reportCache:     reportCache,
		opts:            opts,
		log:             log,
	}
}

// GetReport returns the event's balances and settlement transfers as seen by
// the requesting user. A balance set that cannot be settled is reported as
// SETL_001 rather than as an empty transfer list.
func (s *SettlementServiceImpl) GetReport(ctx context.Context, eventID, userID uuid.UUID) (*domain.ViewerReport, error) {
	var (
		event  *domain.Event
		roster []domain.Participant
		cached *domain.SettlementReport
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if event, err = s.eventRepo.GetByID(gctx, eventID); err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if roster, err = s.participantRepo.ListByEvent(gctx, eventID); err != nil {
			return fmt.Errorf("list participants: %w", err)
		}
		return nil
	})
	if s.cacheEnabled() {
		g.Go(func() error {
			report, err := s.reportCache.Get(gctx, eventID)
			if err != nil {
				s.log.Warn().Err(err).Str("event_id", eventID.String()).Msg("report cache read failed, recomputing")
				return nil
			}
			cached = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	if event == nil {
		return nil, apperror.ErrNotFound("event")
	}
	viewer := domain.FindViewer(roster, userID)
	if viewer == nil {
		return nil, apperror.ErrNotParticipant()
	}

	report := cached
	if report == nil {
		expenses, err := s.expenseRepo.ListByEvent(ctx, eventID)
		if err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("list expenses: %w", err))
		}

		report, err = buildReport(event, roster, expenses, s.opts.MissingShares)
		if err != nil {
			var integrity *settlement.IntegrityError
			if errors.As(err, &integrity) {
				s.log.Error().
					Err(err).
					Str("event_id", eventID.String()).
					Str("residual", integrity.Residual.String()).
					Msg("settlement integrity failure")
				return nil, apperror.ErrSettlementIntegrity(err)
			}
			return nil, apperror.InternalError(err)
		}
		s.logWarnings(report)

		if s.cacheEnabled() {
			if err := s.reportCache.Set(ctx, report, s.opts.CacheTTL); err != nil {
				s.log.Warn().Err(err).Str("event_id", eventID.String()).Msg("failed to cache settlement report")
			}
		}
	}

	// Display names are read-time data; a cached report may predate a rename.
	applyDisplayNames(report, roster)

	return report.ForViewer(viewer.ID), nil
}

func (s *SettlementServiceImpl) cacheEnabled() bool {
	return s.reportCache != nil && s.opts.CacheTTL > 0
}

func (s *SettlementServiceImpl) logWarnings(report *domain.SettlementReport) {
	w := report.Warnings
	if w.Empty() {
		return
	}
	s.log.Warn().
		Str("event_id", report.EventID.String()).
		Int("unreliable_conversions", len(w.UnreliableConversions)).
		Int("share_mismatches", len(w.ShareMismatches)).
		Int("implicit_equal_splits", len(w.ImplicitEqualSplits)).
		Int("excluded_expenses", len(w.ExcludedExpenses)).
		Int("unknown_participants", len(w.UnknownParticipants)).
		Msg("settlement report computed with warnings")
}

// buildReport runs the settlement pipeline over one event's expenses:
// normalize to the ledger currency, aggregate balances, generate transfers.
func buildReport(event *domain.Event, roster []domain.Participant, expenses []domain.Expense, policy MissingSharesPolicy) (*domain.SettlementReport, error) {
	rosterIDs := domain.ParticipantIDs(roster)
	onRoster := make(map[uuid.UUID]bool, len(rosterIDs))
	for _, id := range rosterIDs {
		onRoster[id] = true
	}

	warnings := domain.ReportWarnings{
		UnreliableConversions: []uuid.UUID{},
		ShareMismatches:       []uuid.UUID{},
		ImplicitEqualSplits:   []uuid.UUID{},
		ExcludedExpenses:      []uuid.UUID{},
		UnknownParticipants:   []uuid.UUID{},
	}

	ledger := make([]settlement.LedgerExpense, 0, len(expenses))
	total := decimal.Zero
	for _, e := range expenses {
		shares := make([]settlement.Share, 0, len(e.Shares))
		for _, sh := range e.Shares {
			shares = append(shares, settlement.Share{ParticipantID: sh.ParticipantID, Amount: sh.Amount})
		}

		mismatch := false
		if len(shares) == 0 {
			if policy == MissingSharesExclude {
				warnings.ExcludedExpenses = append(warnings.ExcludedExpenses, e.ID)
				continue
			}
			shares = settlement.Allocate(settlement.AllocationRequest{
				Total:        e.Amount,
				Participants: rosterIDs,
				Method:       settlement.MethodEqual,
			}).Shares
			warnings.ImplicitEqualSplits = append(warnings.ImplicitEqualSplits, e.ID)
		} else if _, mismatch = settlement.CheckShares(e.Amount, shares); mismatch {
			warnings.ShareMismatches = append(warnings.ShareMismatches, e.ID)
		}

		unknown := !onRoster[e.PaidBy]
		for _, sh := range shares {
			if !onRoster[sh.ParticipantID] {
				unknown = true
			}
		}
		if unknown {
			warnings.UnknownParticipants = append(warnings.UnknownParticipants, e.ID)
		}

		conv := settlement.Normalize(e.Amount, e.Currency, event.DefaultCurrency, decimal.NewNullDecimal(e.ConversionRate))
		if conv.Unreliable || e.RateUnreliable {
			warnings.UnreliableConversions = append(warnings.UnreliableConversions, e.ID)
		}

		converted := make([]settlement.Share, len(shares))
		for i, sh := range shares {
			converted[i] = settlement.Share{ParticipantID: sh.ParticipantID, Amount: conv.Apply(sh.Amount)}
		}
		// A mismatched split credits the payer with what the shares consume
		// so the ledger still balances.
		credit := conv.Amount
		if mismatch {
			credit = settlement.SumShares(converted)
		}
		ledger = append(ledger, settlement.LedgerExpense{Amount: credit, PaidBy: e.PaidBy, Shares: converted})
		total = total.Add(conv.Amount)
	}

	balances := settlement.Aggregate(rosterIDs, ledger)
	transfers, err := settlement.Settle(balances)
	if err != nil {
		return nil, err
	}

	report := &domain.SettlementReport{
		EventID:      event.ID,
		Currency:     event.DefaultCurrency,
		ExpenseCount: len(ledger),
		TotalSpent:   total.Round(2),
		Balances:     make([]domain.ParticipantBalance, 0, len(balances)),
		Transfers:    make([]domain.SettlementTransfer, 0, len(transfers)),
		Warnings:     warnings,
		GeneratedAt:  time.Now().UTC(),
	}
	for _, b := range balances {
		report.Balances = append(report.Balances, domain.ParticipantBalance{
			ParticipantID: b.ParticipantID,
			Amount:        b.Amount.Round(2),
		})
	}
	for _, t := range transfers {
		report.Transfers = append(report.Transfers, domain.SettlementTransfer{
			From:     t.From,
			To:       t.To,
			Amount:   t.Amount,
			Currency: event.DefaultCurrency,
		})
	}
	return report, nil
}

func applyDisplayNames(report *domain.SettlementReport, roster []domain.Participant) {
	names := make(map[uuid.UUID]string, len(roster))
	for i := range roster {
		names[roster[i].ID] = roster[i].DisplayName()
	}
	nameOf := func(id uuid.UUID) string {
		if n, ok := names[id]; ok {
			return n
		}
		return unknownParticipantName
	}

	for i := range report.Balances {
		report.Balances[i].DisplayName = nameOf(report.Balances[i].ParticipantID)
	}
	for i := range report.Transfers {
		report.Transfers[i].FromName = nameOf(report.Transfers[i].From)
		report.Transfers[i].ToName = nameOf(report.Transfers[i].To)
	}
}
