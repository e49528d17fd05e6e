package handler

import (
	"expense-settlement/internal/core/ports"
	"expense-settlement/pkg/response"

	"github.com/gin-gonic/gin"
)

// SettlementHandler serves the settlement report of an event.
type SettlementHandler struct {
	settlementSvc ports.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlementSvc ports.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementSvc: settlementSvc}
}

// GetReport handles GET /api/v1/events/:eventID/settlement.
func (h *SettlementHandler) GetReport(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	eventID, err := pathUUID(c, "eventID")
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.settlementSvc.GetReport(c.Request.Context(), eventID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toSettlementResponse(report))
}
