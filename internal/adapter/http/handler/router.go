package handler

import (
	"ridewallet/internal/adapter/http/middleware"
	redisStore "ridewallet/internal/adapter/storage/redis"
	"ridewallet/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	LedgerSvc      ports.LedgerService
	ReconcileSvc   ports.ReconcileService
	QuerySvc       ports.QueryService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
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

	walletHandler := NewWalletHandler(deps.LedgerSvc, deps.QuerySvc)
	rideHandler := NewRideHandler(deps.LedgerSvc)
	paymentHandler := NewPaymentHandler(deps.ReconcileSvc)

	// API v1 routes
	v1 := r.Group("/api/v1")

	wallet := v1.Group("/wallet", jwtAuth)
	{
		wallet.GET("", rl("wallet_read"), walletHandler.GetWallet)
		wallet.GET("/transactions", rl("wallet_read"), walletHandler.ListTransactions)
		wallet.GET("/summary", rl("wallet_read"), walletHandler.GetSummary)
		wallet.POST("/add", rl("wallet_write"), walletHandler.AddMoney)
		wallet.POST("/bonus", rl("wallet_write"), walletHandler.Bonus)
		wallet.POST("/payout", rl("wallet_write"), walletHandler.Payout)
	}

	rides := v1.Group("/rides", jwtAuth)
	{
		rides.POST("/payment", rl("rides"), rideHandler.Payment)
		rides.POST("/refund", rl("rides"), rideHandler.Refund)
	}

	payments := v1.Group("/payments")
	{
		payments.POST("/order", jwtAuth, rl("payments"), paymentHandler.CreateOrder)
		payments.POST("/verify", jwtAuth, rl("payments"), paymentHandler.VerifyPayment)
		// Webhook authenticates by signature, not JWT.
		payments.POST("/webhook", rl("webhook"), paymentHandler.Webhook)
	}

	return r
}
