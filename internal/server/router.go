// Package server assembles the BudgetWise HTTP API.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"budgetwise/internal/changefeed"
	"budgetwise/internal/handlers"
	"budgetwise/internal/middleware"
	"budgetwise/internal/services"
)

// Options configures the router.
type Options struct {
	JWTSecret string
	// KeepAlive is the comment interval on idle change streams.
	KeepAlive time.Duration
}

// NewRouter wires services over db, publishing changes on hub, behind the
// standard middleware chain.
func NewRouter(db *gorm.DB, hub *changefeed.Hub, opts Options) *gin.Engine {
	transactionService := services.NewTransactionService(db, hub)
	budgetService := services.NewBudgetService(db, hub)
	investmentService := services.NewInvestmentService(db, hub)
	auditService := services.NewAuditService(db)

	healthHandler := handlers.NewHealthHandler(db)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService)
	investmentHandler := handlers.NewInvestmentHandler(investmentService)
	activityHandler := handlers.NewActivityHandler(auditService)
	streamHandler := handlers.NewStreamHandler(hub, opts.KeepAlive)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.NoRoute(middleware.NotFound())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/api/health", healthHandler.Health)

	protected := router.Group("/api/v1")
	protected.Use(middleware.AuthMiddleware(opts.JWTSecret))

	transactions := protected.Group("/transactions")
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.DELETE("", transactionHandler.ResetTransactions)
	transactions.GET("/export", transactionHandler.ExportTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PATCH("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	budgets := protected.Group("/budgets")
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.PUT("", budgetHandler.SaveBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/usage", budgetHandler.GetBudgetUsage)

	investments := protected.Group("/investments")
	investments.GET("", investmentHandler.GetInvestments)
	investments.POST("", investmentHandler.RecordInvestment)
	investments.DELETE("/:id", investmentHandler.DeleteInvestment)

	activity := protected.Group("/activity")
	activity.GET("", activityHandler.GetActivity)
	activity.POST("", activityHandler.RecordActivity)

	protected.GET("/stream", streamHandler.Stream)

	return router
}
