package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/digital-twin-ai/platform/internal/admin"
	"github.com/digital-twin-ai/platform/internal/api/router"
	"github.com/digital-twin-ai/platform/internal/bookings"
	"github.com/digital-twin-ai/platform/internal/chat"
	appconfig "github.com/digital-twin-ai/platform/internal/config"
	"github.com/digital-twin-ai/platform/internal/conversations"
	"github.com/digital-twin-ai/platform/internal/llm"
	"github.com/digital-twin-ai/platform/internal/notify"
	"github.com/digital-twin-ai/platform/internal/observability/metrics"
	"github.com/digital-twin-ai/platform/internal/sessions"
	"github.com/digital-twin-ai/platform/internal/store"
	"github.com/digital-twin-ai/platform/internal/tools"
	"github.com/digital-twin-ai/platform/internal/visitors"
	"github.com/digital-twin-ai/platform/pkg/logging"
)

func main() {
	// .env is optional; real deployments set environment variables.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting digital twin API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	loc, err := time.LoadLocation(cfg.SchedulingTimezone)
	if err != nil {
		logger.Error("invalid scheduling timezone", "tz", cfg.SchedulingTimezone, "error", err)
		os.Exit(1)
	}

	// Storage. Without DATABASE_URL everything runs in memory, which
	// keeps local development free of infrastructure.
	var (
		pool          *pgxpool.Pool
		sqlDB         *sql.DB
		visitorRepo   visitors.Repository
		convRepo      conversations.Repository
		bookingRepo   bookings.Repository
		statsHandler  *admin.StatsHandler
		auditWriter   tools.AuditWriter
		asyncAuditLog *tools.AsyncAuditLog
	)

	reg := prometheus.NewRegistry()
	chatMetrics := metrics.NewChatMetrics(reg)

	if cfg.DatabaseURL != "" {
		pool, err = store.OpenPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		sqlDB, err = store.OpenDB(cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database/sql handle", "error", err)
			os.Exit(1)
		}
		defer sqlDB.Close()

		visitorRepo = visitors.NewPostgresRepository(pool)
		convRepo = conversations.NewPostgresRepository(pool)
		bookingRepo = bookings.NewPostgresRepository(pool)
		statsHandler = admin.NewStatsHandler(sqlDB, logger)

		asyncAuditLog = tools.NewAsyncAuditLog(tools.NewAuditLog(sqlDB), cfg.AuditBuffer, chatMetrics, logger)
		defer asyncAuditLog.Close()
		auditWriter = asyncAuditLog
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		visitorRepo = visitors.NewInMemoryRepository()
		convRepo = conversations.NewInMemoryRepository()
		bookingRepo = bookings.NewInMemoryRepository()
	}

	// Sessions.
	var sessionStore sessions.Store
	if cfg.RedisAddr != "" {
		redisStore := sessions.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisStore.Ping(pingCtx); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			cancel()
			os.Exit(1)
		}
		cancel()
		sessionStore = redisStore
	} else {
		sessionStore = sessions.NewMemoryStore(cfg.SessionTTL)
	}

	// LLM: Groq primary, Gemini fallback when configured.
	primary, err := llm.NewGroqClient(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.GroqModelID)
	if err != nil {
		logger.Error("failed to create groq client", "error", err)
		os.Exit(1)
	}
	var fallback llm.Client
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to create gemini client", "error", err)
			os.Exit(1)
		}
		defer gemini.Close()
		fallback = gemini
	}
	client := llm.NewFallbackClient(primary, fallback, chatMetrics, logger)

	// Email.
	var emailSender notify.EmailSender
	if cfg.SendGridAPIKey != "" {
		emailSender = notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	} else {
		logger.Warn("SENDGRID_API_KEY not set, email disabled")
		emailSender = notify.NewStubEmailSender(logger)
	}
	notifier := notify.NewService(emailSender, cfg.OwnerEmail, cfg.OwnerName, logger)

	// Domain services.
	registry := visitors.NewRegistry(visitorRepo, convRepo, logger)
	manager := bookings.NewManager(bookingRepo, visitorRepo, notifier, loc, logger)
	checker := bookings.NewAvailabilityChecker(bookingRepo, bookings.DefaultSlotSchedule(), loc)
	summarizer := chat.NewSummarizer(convRepo, client)
	dispatcher := tools.NewDispatcher(registry, checker, manager, summarizer, auditWriter, chatMetrics, logger)

	chatService := chat.NewService(convRepo, sessionStore, client, dispatcher, chatMetrics, logger, chat.Options{
		MaxTokens:      int32(cfg.LLMMaxTokens),
		VoiceMaxTokens: int32(cfg.VoiceMaxTokens),
		Temperature:    float32(cfg.LLMTemperature),
	})

	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        chat.NewHandler(chatService, convRepo, logger),
		VisitorsHandler:    visitors.NewHandler(registry, logger),
		BookingsHandler:    bookings.NewHandler(manager, logger),
		StatsHandler:       statsHandler,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ChatRatePerSecond:  cfg.ChatRatePerSecond,
		ChatRateBurst:      cfg.ChatRateBurst,
		DatabaseConfigured: cfg.DatabaseURL != "",
		LLMConfigured:      cfg.GroqAPIKey != "",
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
