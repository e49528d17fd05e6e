package handler

import (
	"time"

	"expense-settlement/internal/adapter/http/dto"
	"expense-settlement/internal/core/domain"
	"expense-settlement/internal/core/ports"
	"expense-settlement/internal/core/settlement"

	"github.com/google/uuid"
)

func toPreviewResponse(state *settlement.AllocationState) dto.PreviewResponse {
	alloc := state.Allocation
	shares := make([]dto.ShareResponse, 0, len(alloc.Shares))
	for _, s := range alloc.Shares {
		shares = append(shares, dto.ShareResponse{
			ParticipantID: s.ParticipantID.String(),
			Amount:        s.Amount.StringFixed(2),
		})
	}
	return dto.PreviewResponse{
		Method:     string(state.Method),
		Shares:     shares,
		Locked:     idStrings(alloc.Locked),
		Sum:        alloc.Sum.StringFixed(2),
		Difference: alloc.Difference.StringFixed(2),
		Mismatch:   alloc.Mismatch,
		Valid:      alloc.Valid,
	}
}

func toExpenseResponse(e *domain.Expense) dto.ExpenseResponse {
	shares := make([]dto.ShareResponse, 0, len(e.Shares))
	for _, s := range e.Shares {
		shares = append(shares, dto.ShareResponse{
			ParticipantID: s.ParticipantID.String(),
			Amount:        s.Amount.StringFixed(2),
		})
	}
	return dto.ExpenseResponse{
		ID:             e.ID.String(),
		EventID:        e.EventID.String(),
		Description:    e.Description,
		Amount:         e.Amount.String(),
		Currency:       e.Currency,
		PaidBy:         e.PaidBy.String(),
		Category:       string(e.Category),
		SplitMethod:    string(e.SplitMethod),
		ConversionRate: e.ConversionRate.String(),
		RateUnreliable: e.RateUnreliable,
		CreatedBy:      e.CreatedBy.String(),
		CreatedAt:      e.CreatedAt.UTC().Format(time.RFC3339),
		Shares:         shares,
	}
}

func toCreateExpenseResponse(r *ports.ExpenseResult) dto.CreateExpenseResponse {
	return dto.CreateExpenseResponse{
		Expense:       toExpenseResponse(r.Expense),
		ShareMismatch: r.Mismatch,
		Difference:    r.Difference.StringFixed(2),
	}
}

func toSettlementResponse(r *domain.ViewerReport) dto.SettlementResponse {
	balances := make([]dto.BalanceResponse, 0, len(r.Balances))
	for _, b := range r.Balances {
		balances = append(balances, dto.BalanceResponse{
			ParticipantID: b.ParticipantID.String(),
			DisplayName:   b.DisplayName,
			Amount:        b.Amount.StringFixed(2),
		})
	}
	w := r.Warnings
	return dto.SettlementResponse{
		EventID:        r.EventID.String(),
		Currency:       r.Currency,
		ViewerID:       r.ViewerID.String(),
		ExpenseCount:   r.ExpenseCount,
		TotalSpent:     r.TotalSpent.StringFixed(2),
		Balances:       balances,
		MyTransfers:    toTransferResponses(r.MyTransfers),
		OtherTransfers: toTransferResponses(r.OtherTransfers),
		Warnings: dto.WarningsResponse{
			UnreliableConversions: idStrings(w.UnreliableConversions),
			ShareMismatches:       idStrings(w.ShareMismatches),
			ImplicitEqualSplits:   idStrings(w.ImplicitEqualSplits),
			ExcludedExpenses:      idStrings(w.ExcludedExpenses),
			UnknownParticipants:   idStrings(w.UnknownParticipants),
		},
		GeneratedAt: r.GeneratedAt.UTC().Format(time.RFC3339),
	}
}

func toTransferResponses(in []domain.SettlementTransfer) []dto.TransferResponse {
	out := make([]dto.TransferResponse, 0, len(in))
	for _, t := range in {
		out = append(out, dto.TransferResponse{
			From:     t.From.String(),
			FromName: t.FromName,
			To:       t.To.String(),
			ToName:   t.ToName,
			Amount:   t.Amount.StringFixed(2),
			Currency: t.Currency,
		})
	}
	return out
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
