package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/harapan-foundation/harapan/cmd/harapan/cli"
	"github.com/harapan-foundation/harapan/internal/admin"
	"github.com/harapan-foundation/harapan/internal/app"
	"github.com/harapan-foundation/harapan/internal/audit"
	audithttp "github.com/harapan-foundation/harapan/internal/audit/http"
	"github.com/harapan-foundation/harapan/internal/auth"
	"github.com/harapan-foundation/harapan/internal/observability"
	"github.com/harapan-foundation/harapan/internal/platform/cache"
	"github.com/harapan-foundation/harapan/internal/platform/db"
	"github.com/harapan-foundation/harapan/internal/rbac"
	"github.com/harapan-foundation/harapan/internal/settings"
	"github.com/harapan-foundation/harapan/internal/shared"
	"github.com/harapan-foundation/harapan/internal/users"
	"github.com/harapan-foundation/harapan/internal/view"
	"github.com/harapan-foundation/harapan/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	if len(os.Args) > 1 {
		os.Exit(runCommand(os.Args[1], os.Args[2:]))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	matrix := rbac.DefaultMatrix()
	rules := rbac.DefaultRules()
	for _, w := range rbac.LintRules(rules, matrix, cfg.AuthDashboardPath) {
		logger.Warn("route rule", slog.String("kind", string(w.Kind)), slog.String("detail", w.Message))
	}

	usersRepo := users.NewRepository(dbpool)
	tokenResolver, err := rbac.NewTokenResolver(rbac.TokenConfig{
		Secret:     cfg.TokenSecret,
		Issuer:     cfg.TokenIssuer,
		CookieName: cfg.TokenCookie,
		Leeway:     cfg.TokenLeeway,
	}, logger)
	if err != nil {
		logger.Error("init token resolver", slog.Any("error", err))
		os.Exit(1)
	}
	resolver := rbac.ChainResolver{
		tokenResolver,
		rbac.NewSessionResolver(sessionManager, usersRepo, logger),
	}

	metrics := observability.NewMetrics()

	var recorder rbac.DenialRecorder
	if cfg.AuditEnabled {
		queue, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		if err != nil {
			logger.Error("init job client", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := queue.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		recorder = audit.NewRecorder(queue, logger)
	}

	guard := rbac.NewGuard(rbac.GuardConfig{
		Matrix:   matrix,
		Rules:    rules,
		Excluded: []string{cfg.AuthLoginPath, auth.LogoutPath},
		Resolver: resolver,
		Redirects: rbac.Redirects{
			Login:     cfg.AuthLoginPath,
			Public:    cfg.AuthPublicPath,
			Dashboard: cfg.AuthDashboardPath,
		},
		Logger:   logger,
		Observer: metrics,
		Recorder: recorder,
	})
	checker := rbac.NewChecker(rbac.CheckerConfig{
		Matrix:   matrix,
		Resolver: resolver,
		Logger:   logger,
		Observer: metrics,
		Recorder: recorder,
	})

	templates, err := view.NewEngine(rbac.NewGate(matrix))
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	authHandler := auth.NewHandler(logger, auth.Config{
		IdPLoginURL:   cfg.IdPLoginURL,
		DashboardPath: cfg.AuthDashboardPath,
		PublicPath:    cfg.AuthPublicPath,
	}, templates, sessionManager, csrfManager)

	auditService := audit.NewService(audit.NewStore(dbpool))
	auditHandler := audithttp.NewHandler(logger, auditService, templates, checker)
	adminHandler := admin.NewHandler(admin.Config{
		Matrix:        matrix,
		Rules:         rules,
		DashboardPath: cfg.AuthDashboardPath,
		Templates:     templates,
		CSRF:          csrfManager,
		Denials:       auditService,
		Logger:        logger,
	})

	actionLogger := shared.NewActionLogger(dbpool)
	usersHandler := users.NewHandler(logger, users.NewService(usersRepo, actionLogger, logger), templates, csrfManager, checker)

	settingsService := settings.NewService(settings.NewRepository(dbpool), settings.NewRedisCache(redisClient), actionLogger, logger)
	settingsHandler := settings.NewHandler(logger, settingsService, templates, csrfManager, checker)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Templates:       templates,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		Resolver:        resolver,
		Guard:           guard,
		AuthHandler:     authHandler,
		AdminHandler:    adminHandler,
		UsersHandler:    usersHandler,
		SettingsHandler: settingsHandler,
		AuditHandler:    auditHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// runCommand handles the operational subcommands. It returns the exit code.
func runCommand(name string, args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch name {
	case "lint-rules":
		cfg, err := app.LoadConfig()
		if err != nil {
			slog.Default().Error("load config", slog.Any("error", err))
			return 1
		}
		return cli.NewRulesCLI(rbac.DefaultMatrix(), rbac.DefaultRules()).LintCommand(args, cfg.AuthDashboardPath, nil, nil)
	case "jobs":
		cfg, err := app.LoadConfig()
		if err != nil {
			slog.Default().Error("load config", slog.Any("error", err))
			return 1
		}
		jobsCLI := cli.NewJobsCLI(cfg.RedisAddr, cfg.AuditRetentionDays)
		defer func() {
			_ = jobsCLI.Close()
		}()
		return jobsCLI.Command(ctx, args, nil, nil)
	default:
		slog.Default().Error("unknown command", slog.String("command", name))
		return 2
	}
}
