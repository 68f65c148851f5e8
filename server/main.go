package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reservio/api/routes"
	"reservio/internal/deposits"
	"reservio/internal/notifications"
	"reservio/internal/payments"
	"reservio/internal/reservations"
	"reservio/internal/shared/config"
	"reservio/internal/shared/database"
	"reservio/pkg/clock"
	"reservio/pkg/logger"
	"reservio/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	appLogger := logger.GetDefault()

	// Smart environment loading
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	clk := clock.NewSystem()

	// Initialize DB
	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to connect:", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize Rate Limiter
	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled && db.Redis != nil {
		rateLimiter = ratelimit.NewRateLimiter(db.GetRedisClient(), &ratelimit.Config{
			Enabled:             cfg.RateLimit.Enabled,
			WindowDuration:      cfg.RateLimit.WindowDuration,
			DefaultRequests:     cfg.RateLimit.DefaultRequests,
			PublicRequests:      cfg.RateLimit.PublicRequests,
			ReservationRequests: cfg.RateLimit.ReservationRequests,
			AdminRequests:       cfg.RateLimit.AdminRequests,
			HealthRequests:      cfg.RateLimit.HealthRequests,
			WhitelistedIPs:      cfg.RateLimit.WhitelistedIPs,
		})
		appLogger.Info("Rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	// Setup router; this constructs the service graph
	appRouter := routes.NewRouter(cfg, db, clk)
	engine := setupEngine(cfg, rateLimiter)
	appRouter.SetupRoutes(engine)

	reservationService := appRouter.ReservationService()

	backgroundCtx, backgroundCancel := context.WithCancel(context.Background())
	defer backgroundCancel()

	// Notice producer: lifecycle transitions go out on Kafka
	producerCfg := notifications.DefaultKafkaProducerConfig()
	producerCfg.Brokers = cfg.Kafka.Brokers
	producerCfg.NoticeTopic = cfg.Kafka.NoticeTopic
	noticeProducer, err := notifications.NewKafkaNoticeProducer(producerCfg)
	var noticeService *notifications.Service
	if err != nil {
		appLogger.Error("Failed to initialize notice producer", slog.Any("error", err))
		appLogger.Info("Continuing without notices - lifecycle events will not be published")
	} else {
		noticeService = notifications.NewService(noticeProducer, clk)
		reservationService.SetNotifier(noticeService)
		defer noticeProducer.Close()
		appLogger.Info("✅ Notice producer initialized")
	}

	// Payment consumer: confirms reservations off the payment events topic
	paymentRepo := payments.NewRepository(db.GetPostgreSQL())
	paymentHandler := payments.NewHandler(reservationService, paymentRepo, clk)
	consumerCfg := payments.DefaultConsumerConfig()
	consumerCfg.Brokers = cfg.Kafka.Brokers
	consumerCfg.GroupID = cfg.Kafka.ConsumerGroupID
	consumerCfg.Topics = []string{cfg.Kafka.PaymentTopic}
	paymentConsumer, err := payments.NewKafkaPaymentConsumer(consumerCfg, paymentHandler)
	if err != nil {
		appLogger.Error("Failed to initialize payment consumer", slog.Any("error", err))
		appLogger.Info("Continuing without payment consumer - confirmations only via admin API")
	} else {
		if err := paymentConsumer.StartConsumers(backgroundCtx, cfg.Kafka.ConsumerWorkers); err != nil {
			appLogger.Error("Failed to start payment consumer", slog.Any("error", err))
		}
		defer paymentConsumer.Stop()
	}

	// Hold reclaimer: sweeps lapsed PENDING holds back into capacity
	reclaimer := reservations.NewReclaimer(reservationService, cfg.Holds.SweepInterval)
	reclaimer.Start(backgroundCtx)
	defer reclaimer.Stop()

	// Deposit refund scheduler
	issuerCfg := deposits.DefaultKafkaRefundIssuerConfig()
	issuerCfg.Brokers = cfg.Kafka.Brokers
	issuerCfg.RefundTopic = cfg.Kafka.RefundTopic
	refundIssuer, err := deposits.NewKafkaRefundIssuer(issuerCfg)
	if err != nil {
		appLogger.Error("Failed to initialize refund issuer", slog.Any("error", err))
		appLogger.Info("Continuing without deposit scheduler - refunds must be issued manually")
	} else {
		reservationRepo := reservations.NewRepository(db.GetPostgreSQL())
		depositScheduler := deposits.NewScheduler(reservationRepo, refundIssuer, clk, cfg.Deposits)
		if noticeService != nil {
			depositScheduler.SetNotifier(noticeService)
		}
		depositScheduler.Start(backgroundCtx)
		defer depositScheduler.Stop()
		defer refundIssuer.Close()
	}

	// HTTP server
	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        engine,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("🚀 Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("version", cfg.APIVersion),
			slog.Bool("redis_cache", db.Redis != nil),
			slog.Bool("rate_limiting", rateLimiter != nil),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

func setupEngine(cfg *config.Config, rateLimiter *ratelimit.RateLimiter) *gin.Engine {
	engine := gin.New()
	appLogger := logger.GetDefault()

	// Built-in middleware: logs requests + recovers from panics
	engine.Use(RequestLoggerMiddleware(appLogger), gin.Recovery())

	// CORS configuration
	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-RateLimit-*"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Global rate limiting middleware
	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
		appLogger.Info("Rate limiting middleware applied to all routes")
	}

	return engine
}

func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		l.LogHTTPRequest(c, duration)
	}
}
