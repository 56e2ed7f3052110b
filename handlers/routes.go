package handlers

import (
	"finzora/api/middleware"

	"github.com/gin-gonic/gin"
)

// RouterOptions are the cross-cutting middlewares. Nil entries are skipped.
type RouterOptions struct {
	CORSOrigin  string
	Auth        gin.HandlerFunc
	OTPLimiter  gin.HandlerFunc
	InternalKey gin.HandlerFunc
	RequestLog  bool
}

func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.SetTrustedProxies([]string{"127.0.0.1", "::1"}) // Only trust local proxies
	if opts.RequestLog {
		router.Use(gin.Logger())
	}
	router.Use(middleware.Recovery(), middleware.Cors(opts.CORSOrigin))
	router.NoRoute(HandleNotFound)
	router.NoMethod(HandleNotFound)

	api := router.Group("/api")
	api.GET("/health", h.HandleHealth)

	authRoutes := api.Group("/auth")
	if opts.OTPLimiter != nil {
		authRoutes.Use(opts.OTPLimiter)
	}
	authRoutes.POST("/send-otp", h.HandleSendOTP)
	authRoutes.POST("/verify-otp", h.HandleVerifyOTP)

	user := api.Group("")
	if opts.Auth != nil {
		user.Use(opts.Auth)
	}
	{
		user.POST("/income/add", h.HandleAddIncome)
		user.GET("/income/list", h.HandleListIncome)
		user.DELETE("/income/delete/:id", h.HandleDeleteIncome)

		user.POST("/expense/add", h.HandleAddExpense)
		user.GET("/expense/list", h.HandleListExpenses)
		user.DELETE("/expense/delete/:id", h.HandleDeleteExpense)
		user.GET("/expense/statistics", h.HandleExpenseStatistics)
		user.GET("/expense/subscriptions", h.HandleSubscriptions)
		user.GET("/expense/report", h.HandleExpenseReport)

		user.POST("/receipt/scan", h.HandleScanReceipt)

		user.GET("/categories", h.HandleListCategories)
		user.POST("/categories/rules", h.HandleAddCategoryRule)
		user.POST("/categories/bulk", h.HandleBulkCategorize)

		user.POST("/budget/set", h.HandleSetBudget)
		user.GET("/budget/list", h.HandleListBudgets)
		user.GET("/budget/status", h.HandleBudgetStatus)

		user.POST("/stock/add", h.HandleAddStock)
		user.GET("/stock/list", h.HandleListStocks)
		user.DELETE("/stock/delete/:id", h.HandleDeleteStock)
		user.POST("/stock/update-prices", h.HandleUpdateStockPrices)

		user.POST("/crypto/add", h.HandleAddCrypto)
		user.GET("/crypto/list", h.HandleListCrypto)
		user.DELETE("/crypto/delete/:id", h.HandleDeleteCrypto)
		user.POST("/crypto/update-prices", h.HandleUpdateCryptoPrices)

		user.POST("/alerts/add", h.HandleAddAlert)
		user.GET("/alerts/list", h.HandleListAlerts)
		user.DELETE("/alerts/delete/:id", h.HandleDeleteAlert)

		user.POST("/notifications/save-token", h.HandleSaveToken)
		user.GET("/notifications/stream", h.HandleNotificationStream)
		user.GET("/notifications/ws", h.HandleNotificationSocket)

		user.POST("/chat", h.HandleChat)
		user.GET("/chat/prompts", h.HandleChatPrompts)
	}

	metrics := api.Group("/notifications")
	if opts.InternalKey != nil {
		metrics.Use(opts.InternalKey)
	}
	metrics.GET("/metrics", h.HandleNotificationMetrics)

	return router
}
