package handler

import (
	"silverhand-wallet/internal/adapter/http/middleware"
	"silverhand-wallet/internal/core/domain"
	"silverhand-wallet/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	TransferSvc    ports.TransferService
	Ledger         ports.Ledger
	LinkSvc        ports.LinkRegistry
	Codec          ports.RequestCodec
	TokenSvc       ports.TokenService
	Owner          domain.Wallet
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

	// Health check (deep — verifies whatever stores are configured)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	walletHandler := NewWalletHandler(deps.TransferSvc, deps.Ledger, deps.Codec, deps.LinkSvc, deps.Owner)
	wallet := v1.Group("/wallet", jwtAuth)
	{
		wallet.GET("/balance", walletHandler.GetBalance)
		wallet.GET("/transactions", walletHandler.ListTransactions)
		wallet.POST("/send", walletHandler.Send)
		wallet.POST("/scan", walletHandler.Scan)
		wallet.GET("/receive", walletHandler.Receive)
	}

	linkHandler := NewLinkHandler(deps.LinkSvc, deps.Codec, deps.Owner)
	links := v1.Group("/links", jwtAuth)
	{
		links.POST("", linkHandler.Create)
		links.GET("", linkHandler.List)
		links.GET("/:id", linkHandler.Get)
		links.PATCH("/:id/active", linkHandler.SetActive)
		links.GET("/:id/share", linkHandler.Share)
	}

	return r
}
