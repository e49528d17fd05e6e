package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"expense-settlement/internal/core/domain"
	"expense-settlement/internal/core/ports/mocks"
	"expense-settlement/internal/core/settlement"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type settlementTestDeps struct {
	svc             *SettlementServiceImpl
	eventRepo       *mocks.MockEventRepository
	participantRepo *mocks.MockParticipantRepository
	expenseRepo     *mocks.MockExpenseRepository
	reportCache     *mocks.MockReportCache
	ctrl            *gomock.Controller
}

func setupSettlementService(t *testing.T, opts SettlementOptions) *settlementTestDeps {
	ctrl := gomock.NewController(t)
	d := &settlementTestDeps{
		eventRepo:       mocks.NewMockEventRepository(ctrl),
		participantRepo: mocks.NewMockParticipantRepository(ctrl),
		expenseRepo:     mocks.NewMockExpenseRepository(ctrl),
		reportCache:     mocks.NewMockReportCache(ctrl),
		ctrl:            ctrl,
	}
	d.svc = NewSettlementService(d.eventRepo, d.participantRepo, d.expenseRepo, d.reportCache, opts, zerolog.Nop())
	return d
}

func (d *settlementTestDeps) expectLoad(f fixture, expenses []domain.Expense) {
	d.eventRepo.EXPECT().GetByID(gomock.Any(), f.event.ID).Return(f.event, nil)
	d.participantRepo.EXPECT().ListByEvent(gomock.Any(), f.event.ID).Return(f.roster, nil)
	d.expenseRepo.EXPECT().ListByEvent(gomock.Any(), f.event.ID).Return(expenses, nil)
}

func TestSettlementService_GetReport_Scenario(t *testing.T) {
	d := setupSettlementService(t, SettlementOptions{})
	defer d.ctrl.Finish()
	f := newFixture("Ana", "Ben", "Cleo")

	d.expectLoad(f, []domain.Expense{
		f.expense("90", "EUR", "1", 0, "30", "30", "30"),
		f.expense("30", "EUR", "1", 1, "10", "10", "10"),
	})

	report, err := d.svc.GetReport(context.Background(), f.event.ID, f.users[2])
	require.NoError(t, err)

	assert.Equal(t, "EUR", report.Currency)
	assert.Equal(t, 2, report.ExpenseCount)
	assert.True(t, report.TotalSpent.Equal(dec("120")))
	require.Len(t, report.Balances, 3)
	assert.True(t, report.Balances[0].Amount.Equal(dec("50")))
	assert.Equal(t, "Ana", report.Balances[0].DisplayName)

	require.Len(t, report.Transfers, 2)
	assert.Equal(t, f.pid(2), report.Transfers[0].From)
	assert.Equal(t, "Cleo", report.Transfers[0].FromName)
	assert.Equal(t, "Ana", report.Transfers[0].ToName)
	assert.True(t, report.Transfers[0].Amount.Equal(dec("40")))

	assert.Equal(t, f.pid(2), report.ViewerID)
	require.Len(t, report.MyTransfers, 1)
	require.Len(t, report.OtherTransfers, 1)
	assert.Equal(t, f.pid(1), report.OtherTransfers[0].From)
	assert.True(t, report.Warnings.Empty())
}

func TestSettlementService_GetReport_ForeignCurrencySharesConverted(t *testing.T) {
	d := setupSettlementService(t, SettlementOptions{})
	defer d.ctrl.Finish()
	f := newFixture("Ana", "Ben")

	d.expectLoad(f, []domain.Expense{f.expense("100", "USD", "0.9", 0, "50", "50")})

	report, err := d.svc.GetReport(context.Background(), f.event.ID, f.users[0])
	require.NoError(t, err)

	assert.True(t, report.TotalSpent.Equal(dec("90")))
	require.Len(t, report.Transfers, 1)
	assert.True(t, report.Transfers[0].Amount.Equal(dec("45")))
	assert.Equal(t, "EUR", report.Transfers[0].Currency)
}

func TestSettlementService_GetReport_UnreliableRateWarns(t *testing.T) {
	d := setupSettlementService(t, SettlementOptions{})
	defer d.ctrl.Finish()
	f := newFixture("Ana", "Ben")

	e := f.expense("20", "USD", "1", 0, "10", "10")
	e.RateUnreliable = true
	d.expectLoad(f, []domain.Expense{e})

	report, err := d.svc.GetReport(context.Background(), f.event.ID, f.users[0])
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{e.ID}, report.Warnings.UnreliableConversions)
	assert.True(t, report.Transfers[0].Amount.Equal(dec("10")))
}

func TestSettlementService_GetReport_MissingShares(t *testing.T) {
	f := newFixture("Ana", "Ben", "Cleo", "Dan")
	noShares := f.expense("40", "EUR", "1", 0)

	t.Run("equal_all splits across roster", func(t *testing.T) {
		d := setupSettlementService(t, SettlementOptions{MissingShares: MissingSharesEqualAll})
		defer d.ctrl.Finish()
		d.expectLoad(f, []domain.Expense{noShares})

		report, err := d.svc.GetReport(context.Background(), f.event.ID, f.users[0])
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{noShares.ID}, report.Warnings.ImplicitEqualSplits)
		assert.Len(t, report.Transfers, 3)
		assert.True(t, report.Balances[0].Amount.Equal(dec("30")))
	})

	t.Run("exclude leaves it out", func(t *testing.T) {
		d := setupSettlementService(t, SettlementOptions{MissingShares: MissingSharesExclude})
		defer d.ctrl.Finish()
		d.expectLoad(f, []domain.Expense{noShares})

		report, err := d.svc.GetReport(context.Background(), f.event.ID, f.users[0])
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{noShares.ID}, report.Warnings.ExcludedExpenses)
		assert.Equal(t, 0, report.ExpenseCount)
		assert.Empty(t, report.Transfers)
	})
}

func TestSettlementService_GetReport_UnknownParticipantIsKept(t *testing.T) {
	d := setupSettlementService(t, SettlementOptions{})
	defer d.ctrl.Finish()
	f := newFixture("Ana", "Ben")

	e := f.expense("30", "EUR", "1", 0, "10", "10")
	ghost := uuid.New()
	e.Shares = append(e.Shares, domain.ExpenseShare{ExpenseID: e.ID, ParticipantID: ghost, Amount: dec("10")})
	d.expectLoad(f, []domain.Expense{e})

	report, err := d.svc.GetReport(context.Background(), f.event.ID, f.users[0])
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{e.ID}, report.Warnings.UnknownParticipants)
	require.Len(t, report.Balances, 3)
	assert.Equal(t, ghost, report.Balances[2].ParticipantID)
	assert.Equal(t, unknownParticipantName, report.Balances[2].DisplayName)
}

func TestSettlementService_GetReport_MismatchedSharesStillSettle(t *testing.T) {
	d := setupSettlementService(t, SettlementOptions{})
	defer d.ctrl.Finish()
	f := newFixture("Ana", "Ben")

	e := f.expense("100", "EUR", "1", 0, "50", "49")
	d.expectLoad(f, []domain.Expense{e})

	report, err := d.svc.GetReport(context.Background(), f.event.ID, f.users[0])
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{e.ID}, report.Warnings.ShareMismatches)
	assert.True(t, report.TotalSpent.Equal(dec("100")))
	require.Len(t, report.Balances, 2)
	assert.True(t, report.Balances[0].Amount.Equal(dec("49")))
	assert.True(t, report.Balances[1].Amount.Equal(dec("-49")))
	require.Len(t, report.Transfers, 1)
	assert.Equal(t, f.pid(1), report.Transfers[0].From)
	assert.True(t, report.Transfers[0].Amount.Equal(dec("49")))
}

func TestSettlementService_GetReport_ForeignMismatchUsesConvertedShares(t *testing.T) {
	d := setupSettlementService(t, SettlementOptions{})
	defer d.ctrl.Finish()
	f := newFixture("Ana", "Ben", "Cleo")

	e := f.expense("100", "USD", "0.5", 1, "30", "30")
	d.expectLoad(f, []domain.Expense{e})

	report, err := d.svc.GetReport(context.Background(), f.event.ID, f.users[0])
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{e.ID}, report.Warnings.ShareMismatches)
	require.Len(t, report.Transfers, 1)
	assert.Equal(t, f.pid(0), report.Transfers[0].From)
	assert.Equal(t, f.pid(1), report.Transfers[0].To)
	assert.True(t, report.Transfers[0].Amount.Equal(dec("15")))
}

func TestSettlementService_GetReport_AccumulatedDriftIsIntegrityError(t *testing.T) {
	d := setupSettlementService(t, SettlementOptions{})
	defer d.ctrl.Finish()
	f := newFixture("Ana", "Ben")

	// Each split is a cent short, within the per-expense tolerance, but
	// three of them exceed what two balances can absorb.
	d.expectLoad(f, []domain.Expense{
		f.expense("10", "EUR", "1", 0, "5", "4.99"),
		f.expense("10", "EUR", "1", 0, "5", "4.99"),
		f.expense("10", "EUR", "1", 0, "5", "4.99"),
	})

	_, err := d.svc.GetReport(context.Background(), f.event.ID, f.users[0])
	assertAppCode(t, err, "SETL_001")
	assert.ErrorIs(t, err, settlement.ErrUnbalanced)
}

func TestSettlementService_GetReport_OffsettingMismatchesWarn(t *testing.T) {
	d := setupSettlementService(t, SettlementOptions{})
	defer d.ctrl.Finish()
	f := newFixture("Ana", "Ben")

	under := f.expense("10", "EUR", "1", 0, "5", "4.985")
	over := f.expense("10", "EUR", "1", 0, "5", "5.015")
	d.expectLoad(f, []domain.Expense{under, over})

	report, err := d.svc.GetReport(context.Background(), f.event.ID, f.users[0])
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{under.ID, over.ID}, report.Warnings.ShareMismatches)
	require.Len(t, report.Transfers, 1)
	assert.True(t, report.Transfers[0].Amount.Equal(dec("10")))
}

func TestSettlementService_GetReport_NotParticipant(t *testing.T) {
	d := setupSettlementService(t, SettlementOptions{})
	defer d.ctrl.Finish()
	f := newFixture("Ana")

	d.eventRepo.EXPECT().GetByID(gomock.Any(), f.event.ID).Return(f.event, nil)
	d.participantRepo.EXPECT().ListByEvent(gomock.Any(), f.event.ID).Return(f.roster, nil)

	_, err := d.svc.GetReport(context.Background(), f.event.ID, uuid.New())
	assertAppCode(t, err, "EVT_002")
}

func TestSettlementService_GetReport_EventNotFound(t *testing.T) {
	d := setupSettlementService(t, SettlementOptions{})
	defer d.ctrl.Finish()

	eventID := uuid.New()
	d.eventRepo.EXPECT().GetByID(gomock.Any(), eventID).Return(nil, nil)
	d.participantRepo.EXPECT().ListByEvent(gomock.Any(), eventID).Return(nil, nil)

	_, err := d.svc.GetReport(context.Background(), eventID, uuid.New())
	assertAppCode(t, err, "EVT_001")
}

func TestSettlementService_GetReport_LoadError(t *testing.T) {
	d := setupSettlementService(t, SettlementOptions{})
	defer d.ctrl.Finish()

	eventID := uuid.New()
	d.eventRepo.EXPECT().GetByID(gomock.Any(), eventID).Return(nil, errors.New("connection refused"))
	d.participantRepo.EXPECT().ListByEvent(gomock.Any(), eventID).Return(nil, nil).AnyTimes()

	_, err := d.svc.GetReport(context.Background(), eventID, uuid.New())
	assertAppCode(t, err, "SYS_001")
}

func TestSettlementService_GetReport_CacheMissStoresReport(t *testing.T) {
	ttl := 5 * time.Minute
	d := setupSettlementService(t, SettlementOptions{CacheTTL: ttl})
	defer d.ctrl.Finish()
	f := newFixture("Ana", "Ben")

	d.reportCache.EXPECT().Get(gomock.Any(), f.event.ID).Return(nil, nil)
	d.expectLoad(f, []domain.Expense{f.expense("10", "EUR", "1", 0, "5", "5")})
	d.reportCache.EXPECT().Set(gomock.Any(), gomock.Any(), ttl).DoAndReturn(
		func(_ context.Context, r *domain.SettlementReport, _ time.Duration) error {
			assert.Equal(t, f.event.ID, r.EventID)
			return nil
		})

	_, err := d.svc.GetReport(context.Background(), f.event.ID, f.users[0])
	require.NoError(t, err)
}

func TestSettlementService_GetReport_CacheHitSkipsExpenses(t *testing.T) {
	d := setupSettlementService(t, SettlementOptions{CacheTTL: time.Minute})
	defer d.ctrl.Finish()
	f := newFixture("Ana", "Ben")

	cached := &domain.SettlementReport{
		EventID:  f.event.ID,
		Currency: "EUR",
		Balances: []domain.ParticipantBalance{
			{ParticipantID: f.pid(0), DisplayName: "Old name", Amount: dec("5")},
			{ParticipantID: f.pid(1), DisplayName: "Ben", Amount: dec("-5")},
		},
		Transfers: []domain.SettlementTransfer{{From: f.pid(1), To: f.pid(0), Amount: dec("5"), Currency: "EUR"}},
	}
	d.reportCache.EXPECT().Get(gomock.Any(), f.event.ID).Return(cached, nil)
	d.eventRepo.EXPECT().GetByID(gomock.Any(), f.event.ID).Return(f.event, nil)
	d.participantRepo.EXPECT().ListByEvent(gomock.Any(), f.event.ID).Return(f.roster, nil)

	report, err := d.svc.GetReport(context.Background(), f.event.ID, f.users[1])
	require.NoError(t, err)
	assert.Equal(t, "Ana", report.Balances[0].DisplayName)
	assert.Equal(t, "Ana", report.Transfers[0].ToName)
	assert.Len(t, report.MyTransfers, 1)
}

func TestSettlementService_GetReport_CacheErrorFallsBack(t *testing.T) {
	d := setupSettlementService(t, SettlementOptions{CacheTTL: time.Minute})
	defer d.ctrl.Finish()
	f := newFixture("Ana", "Ben")

	d.reportCache.EXPECT().Get(gomock.Any(), f.event.ID).Return(nil, errors.New("redis timeout"))
	d.expectLoad(f, nil)
	d.reportCache.EXPECT().Set(gomock.Any(), gomock.Any(), time.Minute).Return(errors.New("redis timeout"))

	report, err := d.svc.GetReport(context.Background(), f.event.ID, f.users[0])
	require.NoError(t, err)
	assert.Empty(t, report.Transfers)
	assert.Len(t, report.Balances, 2)
}
