package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"silverhand-wallet/config"
	httpHandler "silverhand-wallet/internal/adapter/http/handler"
	"silverhand-wallet/internal/adapter/signer"
	"silverhand-wallet/internal/adapter/storage/memory"
	pgStorage "silverhand-wallet/internal/adapter/storage/postgres"
	redisStorage "silverhand-wallet/internal/adapter/storage/redis"
	"silverhand-wallet/internal/adapter/submitter"
	"silverhand-wallet/internal/core/domain"
	"silverhand-wallet/internal/core/ports"
	"silverhand-wallet/internal/service"
	"silverhand-wallet/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	if !domain.ValidAddress(cfg.Wallet.Address) {
		log.Fatal().Str("address", cfg.Wallet.Address).Msg("Wallet address is missing or malformed")
	}

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("wallet", cfg.Wallet.Address).
		Msg("Starting SilverHand Wallet")

	ctx := context.Background()

	// Storage: PostgreSQL when enabled, in-memory otherwise.
	var (
		txRepo         ports.TransactionRepository
		linkRepo       ports.PaymentLinkRepository
		merchantRepo   ports.MerchantRepository
		healthCheckers []ports.HealthChecker
	)
	if cfg.Database.Enabled {
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		log.Info().Msg("PostgreSQL connected")

		txRepo = pgStorage.NewTransactionRepo(pool)
		linkRepo = pgStorage.NewLinkRepo(pool)
		merchantRepo = pgStorage.NewMerchantRepo(pool)
		healthCheckers = append(healthCheckers, pgStorage.NewHealthCheck(pool))
	} else {
		log.Info().Msg("Database disabled, using in-memory stores")
		txRepo = memory.NewTransactionRepo()
		linkRepo = memory.NewLinkRepo()
		merchantRepo = memory.NewMerchantRepo()
	}

	// Receipt dedupe: Redis when enabled, in-memory otherwise.
	var receiptStore ports.ReceiptStore
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		log.Info().Msg("Redis connected")

		receiptStore = redisStorage.NewReceiptStore(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
	} else {
		receiptStore = memory.NewReceiptStore()
	}

	// Fee rates
	consumerRate, err := cfg.Fees.ConsumerRateDecimal()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid consumer fee rate")
	}
	merchantRate, err := cfg.Fees.MerchantRateDecimal()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid merchant fee rate")
	}

	// Core services
	feeSvc := service.NewFeeService(consumerRate, merchantRate)
	codecSvc := service.NewCodecService(cfg.Links.Scheme, cfg.Links.Host)
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	ledgerSvc, err := service.NewLedgerService(ctx, txRepo, cfg.Wallet.Address, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build ledger projection")
	}
	linkSvc := service.NewLinkService(linkRepo, codecSvc, log)
	authSvc := service.NewAuthService(merchantRepo, hashSvc, tokenSvc, log)

	// Signing and settlement collaborators
	signerSvc := signer.NewLocal(cfg.Signer.Key)
	var submitSvc ports.Submitter
	if cfg.Submit.Endpoint != "" {
		submitSvc = submitter.NewHTTP(cfg.Submit.Endpoint, cfg.Submit.Timeout, log)
		log.Info().Str("endpoint", cfg.Submit.Endpoint).Msg("Settlement submission over HTTP")
	} else {
		submitSvc = submitter.NewLoopback()
		log.Info().Msg("Settlement endpoint not set, using loopback submitter")
	}

	transferSvc := service.NewTransferService(
		cfg.Wallet.Address,
		feeSvc,
		ledgerSvc,
		linkSvc,
		signerSvc,
		submitSvc,
		receiptStore,
		log,
	)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		TransferSvc:    transferSvc,
		Ledger:         ledgerSvc,
		LinkSvc:        linkSvc,
		Codec:          codecSvc,
		TokenSvc:       tokenSvc,
		Owner:          domain.Wallet{Address: cfg.Wallet.Address, Label: cfg.Wallet.Label},
		HealthCheckers: healthCheckers,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}

	log.Info().Msg("Server stopped")
}
