// Package server initializes and runs the main application server.
// It wires the credential store, the Redis-backed token stores, the signing
// secret provider and the mail dispatcher, handles graceful shutdown, and
// starts the HTTP server for the authentication API.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/api"
	"github.com/dmitrijs2005/gatekeeper/internal/server/config"
	"github.com/dmitrijs2005/gatekeeper/internal/server/mail"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/gatekeeper/internal/server/secrets"
	"github.com/dmitrijs2005/gatekeeper/internal/server/services"
	"github.com/dmitrijs2005/gatekeeper/internal/server/tenant"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	resolver     *tenant.Resolver
	authService  *services.AuthService
	tokenService *services.TokenService
	resetService *services.ResetService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	manager := repomanager.NewPostgresRepositoryManager()
	if err := manager.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// The AWS provider wins when a secret name is configured; the plain
	// config key is the local fallback. Either way the value is fetched at
	// most once per process.
	var provider secrets.Provider
	if cfg.SecretName != "" {
		provider = secrets.NewAWSProvider(cfg.SecretName, cfg.AWSRegion)
	} else {
		provider = secrets.NewStaticProvider(cfg.SecretKey)
	}
	provider = secrets.NewCached(provider)

	var dispatcher mail.Dispatcher
	if cfg.EmailEnabled {
		dispatcher = mail.NewSESDispatcher(cfg.EmailSender, cfg.AWSRegion)
	} else {
		dispatcher = mail.NewLogDispatcher(logger)
	}

	ts := services.NewTokenService(db, manager, revocations.NewRedisRepository(redisClient), provider, cfg)
	as := services.NewAuthService(db, manager, ts)
	rs := services.NewResetService(db, manager, resettokens.NewRedisRepository(redisClient), dispatcher, logger, cfg)

	return &App{
		config:       cfg,
		logger:       logger,
		db:           db,
		resolver:     tenant.NewResolver(cfg.APIKeys),
		authService:  as,
		tokenService: ts,
		resetService: rs,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := api.NewHTTPServer(app.config.EndpointAddr, app.logger, app.authService, app.tokenService, app.resetService, app.resolver)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
