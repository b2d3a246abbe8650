package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dripmail/config"
	"dripmail/middleware"
	"dripmail/routes"
	"dripmail/store"
	"dripmail/utils"
	"dripmail/worker"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const adminTokenTTL = 30 * 24 * time.Hour

func main() {
	// dripmail token <subject> prints an admin API token and exits.
	if len(os.Args) == 3 && os.Args[1] == "token" {
		issueToken(os.Args[2])
		return
	}

	if err := config.Init(); err != nil {
		logrus.Fatalf("Failed to initialize: %v", err)
	}
	defer sentry.Flush(2 * time.Second)

	logger := logrus.WithField("component", "main")
	cfg := config.AppConfig

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := config.ConnectRedis(ctx)
	if err != nil {
		logger.Fatalf("Failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// A missing transport is reported by every drip run, the API still starts.
	transport, err := utils.NewMailTransport(utils.MailTransportConfig{
		ResendAPIKey: cfg.ResendAPIKey,
		SMTPHost:     cfg.SMTP.Host,
		SMTPPort:     cfg.SMTP.Port,
		SMTPUsername: cfg.SMTP.Username,
		SMTPPassword: cfg.SMTP.Password,
	})
	if err != nil {
		logger.WithError(err).Warn("Drip runs will fail until a mail transport is configured")
	}

	storage := store.NewGormStorage(config.DB)
	scheduler := worker.NewDripScheduler(
		storage.Campaigns,
		storage.Contacts,
		storage.Settings,
		transport,
		schedulerOptions(cfg, redisClient)...,
	)

	dripWorker := worker.NewDripWorker(scheduler, cfg.DripSchedule, logrus.WithField("component", "drip_worker"))
	go func() {
		if err := dripWorker.Start(ctx); err != nil {
			logger.Fatalf("Failed to start drip worker: %v", err)
		}
	}()

	app := fiber.New(fiber.Config{AppName: "dripmail"})

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.CORSOrigins
	app.Use(middleware.CORS(corsConfig))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	var rateLimitStorage fiber.Storage
	if redisClient != nil {
		rateLimitStorage = middleware.NewRedisStorage(redisClient)
	}
	routes.SetupRoutes(app, routes.Deps{
		DB:               config.DB,
		Scheduler:        scheduler,
		JWTSecret:        cfg.JWTSecret,
		RateLimitPublic:  cfg.RateLimitPublic,
		RateLimitStorage: rateLimitStorage,
	})

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			logger.WithError(err).Error("Server shutdown failed")
		}
	}()

	logger.Infof("🚀 Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}

func schedulerOptions(cfg config.Config, redisClient *redis.Client) []worker.Option {
	opts := []worker.Option{
		worker.WithBaseURL(cfg.PublicBaseURL),
		worker.WithSenderDefaults(cfg.DefaultFromName, cfg.DefaultFromEmail),
		worker.WithLogger(logrus.WithField("component", "drip")),
	}

	switch cfg.SendLedger {
	case config.LedgerDB:
		opts = append(opts, worker.WithLedger(worker.NewDBSendLedger(config.DB)))
	case config.LedgerRedis:
		opts = append(opts, worker.WithLedger(worker.NewRedisSendLedger(redisClient, worker.DefaultLedgerTTL)))
	}

	if redisClient != nil {
		opts = append(opts, worker.WithRunLock(worker.NewRedisRunLock(redisClient, worker.DefaultRunLockKey, cfg.DripLockTTL)))
	} else {
		opts = append(opts, worker.WithRunLock(&worker.LocalRunLock{}))
	}
	return opts
}

func issueToken(subject string) {
	if err := config.LoadConfig(); err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	token, err := utils.GenerateJWTToken(config.AppConfig.JWTSecret, subject, adminTokenTTL)
	if err != nil {
		logrus.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
