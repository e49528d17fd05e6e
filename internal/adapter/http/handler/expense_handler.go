package handler

import (
	"expense-settlement/internal/adapter/http/dto"
	"expense-settlement/internal/adapter/http/middleware"
	"expense-settlement/internal/core/domain"
	"expense-settlement/internal/core/ports"
	"expense-settlement/internal/core/settlement"
	"expense-settlement/pkg/apperror"
	"expense-settlement/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExpenseHandler handles expense endpoints of an event.
type ExpenseHandler struct {
	expenseSvc ports.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseSvc ports.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseSvc: expenseSvc}
}

// Create handles POST /api/v1/events/:eventID/expenses.
func (h *ExpenseHandler) Create(c *gin.Context) {
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

	var req dto.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	in, err := toCreateExpenseInput(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	in.EventID = eventID
	in.UserID = userID

	result, err := h.expenseSvc.CreateExpense(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, result.Expense.ID.String())
	response.Created(c, toCreateExpenseResponse(result))
}

// List handles GET /api/v1/events/:eventID/expenses.
func (h *ExpenseHandler) List(c *gin.Context) {
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

	expenses, err := h.expenseSvc.ListExpenses(c.Request.Context(), eventID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		items = append(items, toExpenseResponse(&expenses[i]))
	}
	response.OK(c, gin.H{"expenses": items})
}

// Delete handles DELETE /api/v1/events/:eventID/expenses/:expenseID.
func (h *ExpenseHandler) Delete(c *gin.Context) {
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
	expenseID, err := pathUUID(c, "expenseID")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.expenseSvc.DeleteExpense(c.Request.Context(), eventID, expenseID, userID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// toCreateExpenseInput converts the request body. Manually split shares are
// all locked: they are the amounts the user typed.
func toCreateExpenseInput(req dto.CreateExpenseRequest) (ports.CreateExpenseRequest, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return ports.CreateExpenseRequest{}, err
	}
	paidBy, err := uuid.Parse(req.PaidBy)
	if err != nil {
		return ports.CreateExpenseRequest{}, apperror.Validation("invalid paid_by")
	}
	participants, err := parseIDs(req.Participants)
	if err != nil {
		return ports.CreateExpenseRequest{}, err
	}

	in := ports.CreateExpenseRequest{
		Description:    req.Description,
		Amount:         amount,
		Currency:       req.Currency,
		PaidBy:         paidBy,
		Category:       domain.ExpenseCategory(req.Category),
		Method:         settlement.Method(req.SplitMethod),
		Participants:   participants,
		ConversionRate: settlement.ParseRate(req.ConversionRate),
	}
	if in.Method == settlement.MethodManual {
		shares, order, err := parseShares(req.Shares)
		if err != nil {
			return ports.CreateExpenseRequest{}, err
		}
		in.Shares = shares
		in.Locked = order
	}
	return in, nil
}
