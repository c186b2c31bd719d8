package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ronieruas/Finance-CursorApp-sub000/internal/docs" // swagger spec registration
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/handlers"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/middleware"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/ratelimit"
)

// RouterOptions configures the HTTP surface.
type RouterOptions struct {
	// Limiter throttles callers. Nil or one without a Redis client lets every request through.
	Limiter *ratelimit.Limiter
	// SchedulerAPIKey guards /billing. Empty answers 503 there.
	SchedulerAPIKey string
	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string
	// Ping backs the health check. Nil reports ok.
	Ping func(ctx context.Context) error
}

// NewRouter builds the gin engine with every API route.
func NewRouter(svc *Services, opts RouterOptions) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users)
	accountHandler := handlers.NewAccountHandler(svc.Accounts)
	incomeHandler := handlers.NewIncomeHandler(svc.Incomes)
	expenseHandler := handlers.NewExpenseHandler(svc.Expenses)
	transferHandler := handlers.NewTransferHandler(svc.Transfers)
	cardHandler := handlers.NewCreditCardHandler(svc.Cards, svc.Billing, svc.Calendar)
	budgetHandler := handlers.NewBudgetHandler(svc.Budgets, svc.Calendar)
	billingHandler := handlers.NewBillingHandler(svc.Billing, svc.DailyJob, svc.Calendar)

	router := gin.New()
	router.Use(middleware.RequestLogging())
	router.Use(middleware.Recovery())
	router.Use(cors.New(corsConfig(opts.AllowedOrigins)))
	router.Use(middleware.ErrorHandler())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		if opts.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := opts.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.Use(middleware.RateLimitMiddleware(opts.Limiter))
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Scheduler routes
	billing := v1.Group("/billing")
	billing.Use(middleware.SchedulerAuthMiddleware(opts.SchedulerAPIKey))
	billing.POST("/close", billingHandler.CloseDueBills)
	billing.POST("/auto-debits", billingHandler.ProcessAutoDebits)
	billing.POST("/run", billingHandler.RunDaily)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())
	protected.Use(middleware.RateLimitMiddleware(opts.Limiter))

	protected.GET("/profile", authHandler.GetProfile)

	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.GET("/:id/entries", accountHandler.GetAccountEntries)
	accounts.GET("/:id/reconcile", accountHandler.ReconcileAccount)

	incomes := protected.Group("/incomes")
	incomes.POST("", incomeHandler.CreateIncome)
	incomes.GET("", incomeHandler.GetIncomes)
	incomes.GET("/:id", incomeHandler.GetIncome)
	incomes.PUT("/:id", incomeHandler.UpdateIncome)
	incomes.DELETE("/:id", incomeHandler.DeleteIncome)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.GetExpenses)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	transfers := protected.Group("/transfers")
	transfers.POST("", transferHandler.CreateTransfer)
	transfers.GET("", transferHandler.GetTransfers)
	transfers.GET("/:id", transferHandler.GetTransfer)
	transfers.PUT("/:id", transferHandler.UpdateTransfer)
	transfers.DELETE("/:id", transferHandler.DeleteTransfer)

	cards := protected.Group("/credit-cards")
	cards.POST("", cardHandler.CreateCard)
	cards.GET("", cardHandler.GetCards)
	cards.GET("/:id", cardHandler.GetCard)
	cards.PUT("/:id", cardHandler.UpdateCard)
	cards.DELETE("/:id", cardHandler.DeleteCard)
	cards.GET("/:id/periods", cardHandler.GetPeriods)
	cards.GET("/:id/invoice", cardHandler.GetInvoice)
	cards.GET("/:id/usage", cardHandler.GetUsage)
	cards.POST("/:id/close", cardHandler.CloseBill)
	cards.POST("/:id/payments", cardHandler.PayBill)
	cards.GET("/:id/payments", cardHandler.GetPayments)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/progress", budgetHandler.GetBudgetProgress)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
