package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/fieldline-crm/fieldline-crm/internal/app"
	"github.com/fieldline-crm/fieldline-crm/internal/auth"
	"github.com/fieldline-crm/fieldline-crm/internal/crm/accounts"
	"github.com/fieldline-crm/fieldline-crm/internal/crm/contacts"
	"github.com/fieldline-crm/fieldline-crm/internal/crm/leads"
	"github.com/fieldline-crm/fieldline-crm/internal/dashboard"
	"github.com/fieldline-crm/fieldline-crm/internal/fieldops/invoices"
	"github.com/fieldline-crm/fieldline-crm/internal/fieldops/quotes"
	"github.com/fieldline-crm/fieldline-crm/internal/fieldops/workorders"
	"github.com/fieldline-crm/fieldline-crm/internal/mailer"
	"github.com/fieldline-crm/fieldline-crm/internal/mailer/webhook"
	"github.com/fieldline-crm/fieldline-crm/internal/observability"
	"github.com/fieldline-crm/fieldline-crm/internal/pdf"
	"github.com/fieldline-crm/fieldline-crm/internal/platform/cache"
	"github.com/fieldline-crm/fieldline-crm/internal/platform/db"
	"github.com/fieldline-crm/fieldline-crm/internal/rbac"
	"github.com/fieldline-crm/fieldline-crm/internal/shared"
	"github.com/fieldline-crm/fieldline-crm/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	if err := db.Migrate(cfg.PGDSN); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

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

	sessionManager := shared.NewSessionManager(redisClient, "fieldline_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(pool)

	rbacService := rbac.NewService(rbac.NewRepository(pool))
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}
	rbacHandler := rbac.NewHandler(logger, rbacService, rbacMiddleware)

	authService := auth.NewService(auth.NewRepository(pool), rbacService)
	authHandler := auth.NewHandler(logger, authService, rbacService, sessionManager, csrfManager)

	accountsService := accounts.NewService(accounts.NewRepository(pool), auditLogger)
	accountsHandler := accounts.NewHandler(logger, accountsService, rbacMiddleware)

	contactsService := contacts.NewService(contacts.NewRepository(pool), auditLogger)
	contactsHandler := contacts.NewHandler(logger, contactsService, rbacMiddleware)

	leadsService := leads.NewService(leads.NewRepository(pool), contactsService, accountsService, auditLogger)
	leadsHandler := leads.NewHandler(logger, leadsService, rbacMiddleware)

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

	pdfService, err := pdf.NewService(cfg.GotenbergURL, nil)
	if err != nil {
		logger.Error("init pdf service", slog.Any("error", err))
		os.Exit(1)
	}

	quotesService := quotes.NewService(quotes.NewRepository(pool), contactsService, mailClient, auditLogger)
	quotesHandler := quotes.NewHandler(logger, quotesService, rbacMiddleware, pdfService)

	invoicesService := invoices.NewService(invoices.NewRepository(pool), contactsService, mailClient, auditLogger)
	invoicesHandler := invoices.NewHandler(logger, invoicesService, rbacMiddleware, pdfService)

	workOrdersService := workorders.NewService(workorders.NewRepository(pool), rbacService, invoicesService, auditLogger)
	workOrdersHandler := workorders.NewHandler(logger, workOrdersService, rbacMiddleware, pdfService)

	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashboardService := dashboard.NewService(dashboard.NewRepository(pool), dashboardCache)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, rbacMiddleware)

	var webhookHandler *webhook.Handler
	if cfg.ResendWebhookSecret != "" {
		webhookReducer := mailer.NewReducer(mailer.NewRepository(pool), logger)
		webhookHandler = webhook.NewHandler(logger, cfg.ResendWebhookSecret, webhookReducer)
	} else {
		logger.Warn("RESEND_WEBHOOK_SECRET not set, webhook endpoint disabled")
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		AuthHandler:       authHandler,
		RBACHandler:       rbacHandler,
		LeadsHandler:      leadsHandler,
		ContactsHandler:   contactsHandler,
		AccountsHandler:   accountsHandler,
		QuotesHandler:     quotesHandler,
		WorkOrdersHandler: workOrdersHandler,
		InvoicesHandler:   invoicesHandler,
		DashboardHandler:  dashboardHandler,
		WebhookHandler:    webhookHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
