package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/fieldline-crm/fieldline-crm/internal/app"
	"github.com/fieldline-crm/fieldline-crm/internal/crm/contacts"
	"github.com/fieldline-crm/fieldline-crm/internal/dashboard"
	"github.com/fieldline-crm/fieldline-crm/internal/fieldops/invoices"
	jobmetrics "github.com/fieldline-crm/fieldline-crm/internal/jobs"
	"github.com/fieldline-crm/fieldline-crm/internal/mailer"
	"github.com/fieldline-crm/fieldline-crm/internal/platform/cache"
	"github.com/fieldline-crm/fieldline-crm/internal/platform/db"
	"github.com/fieldline-crm/fieldline-crm/internal/shared"
	"github.com/fieldline-crm/fieldline-crm/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)

	var driver mailer.Driver
	if cfg.MailDriver == "resend" {
		driver = mailer.NewResendDriver(cfg.ResendAPIKey, cfg.MailFrom)
	} else {
		driver = mailer.NewSMTPDriver(mailer.SMTPConfig{
			Host:             cfg.SMTPHost,
			Port:             cfg.SMTPPort,
			User:             cfg.SMTPUser,
			Password:         cfg.SMTPPassword,
			From:             cfg.MailFrom,
			AllowInsecureTLS: !cfg.IsProduction(),
		})
	}
	mailerService := mailer.NewService(driver, mailer.NewRepository(pool), logger)

	mailClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := mailClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	contactsService := contacts.NewService(contacts.NewRepository(pool), auditLogger)
	invoicesService := invoices.NewService(invoices.NewRepository(pool), contactsService, mailClient, auditLogger)

	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashboardService := dashboard.NewService(dashboard.NewRepository(pool), dashboardCache)

	metrics := jobmetrics.NewMetrics(nil)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendMail, Handler: jobs.NewSendMailHandler(mailerService, logger, metrics)},
			{Type: jobs.TaskTypeMarkOverdue, Handler: jobs.NewMarkOverdueHandler(invoicesService, logger, metrics)},
			{Type: jobs.TaskTypeDashboardWarmup, Handler: jobs.NewDashboardWarmupHandler(dashboardService, logger, metrics)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 1 * * *", Task: jobs.NewMarkOverdueTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "*/10 * * * *", Task: jobs.NewDashboardWarmupTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
