package handler

import (
	"strings"

	"expense-settlement/internal/adapter/http/dto"
	"expense-settlement/internal/core/ports"
	"expense-settlement/internal/core/settlement"
	"expense-settlement/pkg/apperror"
	"expense-settlement/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationHandler serves the live share preview of the expense form.
type AllocationHandler struct {
	expenseSvc ports.ExpenseService
}

// NewAllocationHandler creates a new AllocationHandler.
func NewAllocationHandler(expenseSvc ports.ExpenseService) *AllocationHandler {
	return &AllocationHandler{expenseSvc: expenseSvc}
}

// Preview handles POST /api/v1/allocations/preview.
func (h *AllocationHandler) Preview(c *gin.Context) {
	var req dto.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	in, err := toPreviewInput(req)
	if err != nil {
		response.Error(c, err)
		return
	}

	state, err := h.expenseSvc.PreviewShares(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toPreviewResponse(state))
}

func toPreviewInput(req dto.PreviewRequest) (ports.PreviewRequest, error) {
	participants, err := parseIDs(req.Participants)
	if err != nil {
		return ports.PreviewRequest{}, err
	}
	locked, err := parseIDs(req.Locked)
	if err != nil {
		return ports.PreviewRequest{}, err
	}
	shares, _, err := parseShares(req.Shares)
	if err != nil {
		return ports.PreviewRequest{}, err
	}

	// A half-typed total previews as zero shares instead of failing.
	total, err := decimal.NewFromString(strings.TrimSpace(req.Total))
	if err != nil {
		total = decimal.Zero
	}

	in := ports.PreviewRequest{
		Total:        total,
		Participants: participants,
		Method:       settlement.Method(req.Method),
		Shares:       shares,
		Locked:       locked,
	}
	if req.Edit != nil {
		id, err := uuid.Parse(req.Edit.ParticipantID)
		if err != nil {
			return ports.PreviewRequest{}, apperror.Validation("invalid participant id: " + req.Edit.ParticipantID)
		}
		amount, err := parseAmount(req.Edit.Amount)
		if err != nil {
			return ports.PreviewRequest{}, err
		}
		in.Edit = &ports.ShareEdit{ParticipantID: id, Amount: amount}
	}
	return in, nil
}

// parseShares returns the shares keyed by participant plus the participants
// in request order.
func parseShares(in []dto.ShareInput) (map[uuid.UUID]decimal.Decimal, []uuid.UUID, error) {
	shares := make(map[uuid.UUID]decimal.Decimal, len(in))
	order := make([]uuid.UUID, 0, len(in))
	for _, s := range in {
		id, err := uuid.Parse(s.ParticipantID)
		if err != nil {
			return nil, nil, apperror.Validation("invalid participant id: " + s.ParticipantID)
		}
		amount, err := parseAmount(s.Amount)
		if err != nil {
			return nil, nil, err
		}
		if _, dup := shares[id]; !dup {
			order = append(order, id)
		}
		shares[id] = amount
	}
	return shares, order, nil
}
