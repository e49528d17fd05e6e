package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"expense-settlement/internal/core/domain"
	"expense-settlement/internal/core/ports"
	"expense-settlement/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CtxResourceID lets a handler name the resource it created for the audit log.
const CtxResourceID = "audit_resource_id"

const (
	routeExpenses = "/api/v1/events/:eventID/expenses"
	routeExpense  = "/api/v1/events/:eventID/expenses/:expenseID"
)

// AuditLog creates an audit middleware that records successful writes.
// It maps route templates and methods to audit actions.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		action, resourceType := mapRouteToAction(c.FullPath(), c.Request.Method)
		if action == "" {
			return
		}

		entry := &domain.AuditLog{
			ID:           uuid.New(),
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   c.Param("expenseID"),
			IPAddress:    c.ClientIP(),
			CreatedAt:    time.Now(),
		}
		if id, ok := UserID(c); ok {
			entry.UserID = &id
		}
		if id, err := uuid.Parse(c.Param("eventID")); err == nil {
			entry.EventID = &id
		}
		if rid := c.GetString(CtxResourceID); rid != "" {
			entry.ResourceID = rid
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"request_id": c.GetString(response.RequestIDKey),
		})
		entry.Details = string(details)

		auditSvc.Log(c.Request.Context(), entry)
	}
}

func mapRouteToAction(route, method string) (domain.AuditAction, string) {
	switch {
	case route == routeExpenses && method == http.MethodPost:
		return domain.AuditActionExpenseCreate, "expense"
	case route == routeExpense && method == http.MethodDelete:
		return domain.AuditActionExpenseDelete, "expense"
	}
	return "", ""
}
