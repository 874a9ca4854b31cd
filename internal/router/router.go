package router

import (
	"time"

	"github.com/expenso-dev/expenso/db"
	"github.com/expenso-dev/expenso/internal/handlers"
	"github.com/expenso-dev/expenso/internal/middleware"
	"github.com/expenso-dev/expenso/internal/notify"
	"github.com/expenso-dev/expenso/internal/types"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// The notification pipeline: one hub and publisher per server process.
	hub := notify.NewHub()
	store := notify.NewGormStore(db.DB)
	publisher := notify.NewPublisher(store, hub)
	emitter := notify.NewEmitter(publisher)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws", middleware.SocketAuthMiddleware(), handlers.WebSocket(hub, publisher))

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.CreateUser)
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/logout", handlers.LogoutUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
			auth.PATCH("/me", middleware.AuthMiddleware(), handlers.UpdateUser)
		}

		expenses := api.Group("/expenses", middleware.AuthMiddleware())
		{
			expenses.POST("", handlers.AddExpense(emitter))
			expenses.GET("", handlers.GetAllExpenses)
			expenses.PUT("/:id", handlers.UpdateExpense(emitter))
			expenses.DELETE("/:id", handlers.DeleteExpense)
			expenses.GET("/stats", handlers.GetExpenseCardStats)
			expenses.GET("/category-analytics", handlers.GetExpenseCategoryAnalytics)
		}

		incomes := api.Group("/incomes", middleware.AuthMiddleware())
		{
			incomes.POST("", handlers.AddIncome(emitter))
			incomes.GET("", handlers.GetAllIncomes)
			incomes.PUT("/:id", handlers.UpdateIncome(emitter))
			incomes.DELETE("/:id", handlers.DeleteIncome)
			incomes.GET("/stats", handlers.GetIncomeCardStats)
			incomes.GET("/category-analytics", handlers.GetIncomeCategoryAnalytics)
		}

		notifications := api.Group("/notifications", middleware.AuthMiddleware())
		{
			notifications.GET("", handlers.GetNotifications(store))
			notifications.PATCH("/:id/read", handlers.MarkNotificationRead(publisher))
		}
	}

	return r
}
