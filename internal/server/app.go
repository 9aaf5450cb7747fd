// Package server wires the application together: storage, the session
// codec pinned to the process epoch, the services and the HTTP API, with
// graceful shutdown on OS signals.
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
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dberezins/threatlens/internal/logging"
	"github.com/dberezins/threatlens/internal/server/auth"
	"github.com/dberezins/threatlens/internal/server/classify"
	"github.com/dberezins/threatlens/internal/server/config"
	"github.com/dberezins/threatlens/internal/server/httpapi"
	"github.com/dberezins/threatlens/internal/server/notify"
	"github.com/dberezins/threatlens/internal/server/repositories/repomanager"
	"github.com/dberezins/threatlens/internal/server/samples"
	"github.com/dberezins/threatlens/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	api    *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	// The epoch is captured once per process. Every session issued before
	// this instant, including all sessions from previous runs, is invalid.
	epoch := time.Now()
	sessions := auth.NewSessions([]byte(cfg.SecretKey), cfg.SessionValidityDuration, epoch)

	mailer := notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	classifier := classify.NewScriptClassifier(cfg.PythonBin, cfg.ScriptDir)
	store := samples.NewStore(cfg.S3Region, cfg.S3RootUser, cfg.S3RootPassword, cfg.S3Bucket, cfg.S3BaseEndpoint)

	authSvc := services.NewAuthService(db, rm, sessions, mailer, logger, cfg)
	scanSvc := services.NewScanService(db, rm, classifier, store, logger)

	api := httpapi.NewServer(authSvc, scanSvc, sessions, logger)

	return &App{config: cfg, logger: logger, db: db, api: api}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.EndpointAddr)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.api.Listen(app.config.EndpointAddr); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	<-ctx.Done()

	app.logger.Info(ctx, "Shutting down...")
	if err := app.api.Shutdown(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}

	wg.Wait()
}
