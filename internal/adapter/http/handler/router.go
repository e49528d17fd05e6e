package handler

import (
	"expense-settlement/internal/adapter/http/middleware"
	redisStore "expense-settlement/internal/adapter/storage/redis"
	"expense-settlement/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies; expense forms are small.
const maxBodyBytes = 1 << 20

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	ExpenseSvc     ports.ExpenseService
	SettlementSvc  ports.SettlementService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	AllowedOrigins []string
	Mode           string
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	mode := deps.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS(deps.AllowedOrigins))
	r.Use(middleware.MaxBodySize(maxBodyBytes))

	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	v1 := r.Group("/api/v1", jwtAuth)

	allocationHandler := NewAllocationHandler(deps.ExpenseSvc)
	v1.POST("/allocations/preview", rl("preview"), allocationHandler.Preview)

	expenseHandler := NewExpenseHandler(deps.ExpenseSvc)
	settlementHandler := NewSettlementHandler(deps.SettlementSvc)

	events := v1.Group("/events/:eventID")
	{
		events.GET("/expenses", rl("expenses_read"), expenseHandler.List)
		events.POST("/expenses", rl("expenses_write"), expenseHandler.Create)
		events.DELETE("/expenses/:expenseID", rl("expenses_write"), expenseHandler.Delete)
		events.GET("/settlement", rl("settlement"), settlementHandler.GetReport)
	}

	return r
}
