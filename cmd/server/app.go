package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/draftwire/draftwire/internal/auditlog"
	"github.com/draftwire/draftwire/internal/auth"
	"github.com/draftwire/draftwire/internal/config"
	"github.com/draftwire/draftwire/internal/contentstore"
	"github.com/draftwire/draftwire/internal/dispatcher"
	"github.com/draftwire/draftwire/internal/notify"
	"github.com/draftwire/draftwire/internal/scheduler"
	"github.com/draftwire/draftwire/internal/store"
	"github.com/draftwire/draftwire/internal/worker"
)

// sweepInterval is how often the scheduler checks for due executions.
const sweepInterval = time.Second

// application holds the wired dependency graph. Everything is
// constructed once at startup and passed by reference; there are no
// process-wide mutable singletons.
type application struct {
	cfg    *config.Config
	logger *slog.Logger

	redisClient *redis.Client
	auditDB     *sql.DB

	tasks     *store.TaskStore
	callbacks *store.CallbackStore

	verifier   *auth.Verifier
	identities auth.IdentityProvider
	admTokens  *auth.AdminTokenService

	audit      auditlog.Recorder
	notifier   notify.Notifier
	sched      *scheduler.SweepScheduler
	dispatcher *dispatcher.Dispatcher
	worker     *worker.Worker
}

// newApplication wires the full dependency graph from configuration.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{cfg: cfg, logger: logger}

	app.redisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := app.redisClient.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
	}

	kv := store.NewRedisStore(app.redisClient)
	app.tasks = store.NewTaskStore(kv)
	app.callbacks = store.NewCallbackStore(kv)

	keeper, err := auth.NewSecretKeeper(kv, cfg.Auth.SecretMaterial, cfg.Auth.SecretSalt, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secret keeper: %w", err)
	}
	app.identities = auth.NewStaticProvider(cfg.Auth.Identities)
	app.verifier = auth.NewVerifier(app.identities, keeper, logger)

	if cfg.Auth.AdminJWTSecret != "" {
		app.admTokens, err = auth.NewAdminTokenService(cfg.Auth.AdminJWTSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize admin token service: %w", err)
		}
	}

	app.audit, err = app.setupAudit(cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.Notify.SMTPAddr != "" {
		app.notifier = notify.NewSMTPNotifier(cfg.Notify.SMTPAddr, cfg.Notify.From, cfg.Notify.To, logger)
	} else {
		logger.Warn("no SMTP server configured, operator escalations go to the error log")
		app.notifier = notify.NewLogNotifier(logger)
	}

	content := contentstore.NewClient(cfg.ContentStore.BaseURL, cfg.ContentStore.Token)

	app.sched = scheduler.NewSweepScheduler(sweepInterval, logger)
	app.dispatcher = dispatcher.New(app.callbacks, app.sched, app.notifier, app.audit, cfg.Callback, logger)
	app.worker = worker.New(app.tasks, content, app.dispatcher, app.sched, app.notifier, app.audit,
		worker.NewImageFetcher(), cfg.Publish, logger)

	app.sched.Register(worker.ActionID, app.worker.Process)
	app.sched.Register(dispatcher.ActionID, app.dispatcher.Deliver)

	return app, nil
}

// setupAudit opens the audit database and applies migrations, or falls
// back to the no-op recorder when no database is configured.
func (app *application) setupAudit(cfg config.DatabaseConfig) (auditlog.Recorder, error) {
	if cfg.URL == "" {
		app.logger.Info("audit log disabled, no database configured")
		return auditlog.NoopRecorder{}, nil
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	if err := auditlog.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	app.auditDB = db
	app.logger.Info("audit log enabled")
	return auditlog.NewSQLRecorder(db, app.logger), nil
}

// close releases held connections. The scheduler is stopped separately
// during shutdown so in-flight work can drain first.
func (app *application) close() {
	if app.auditDB != nil {
		if err := app.auditDB.Close(); err != nil {
			app.logger.Error("failed to close audit database", "error", err)
		}
	}
	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("failed to close redis client", "error", err)
		}
	}
}
