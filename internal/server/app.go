// Package server wires configuration, storage, services and transports into
// the running gadget API.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/anshc022/imf-gadget-api/internal/logging"
	"github.com/anshc022/imf-gadget-api/internal/server/config"
	"github.com/anshc022/imf-gadget-api/internal/server/repositories/repomanager"
	"github.com/anshc022/imf-gadget-api/internal/server/rest"
	"github.com/anshc022/imf-gadget-api/internal/server/services"

	gs "github.com/anshc022/imf-gadget-api/internal/server/grpc"
)

type App struct {
	config        *config.Config
	logger        logging.Logger
	db            *sql.DB
	userService   *services.UserService
	gadgetService *services.GadgetService
}

// NewLogger builds the logger selected by the config.
func NewLogger(c *config.Config) (logging.Logger, error) {
	return logging.New(c.LogBackend, c.LogLevel, os.Stdout)
}

// NewApp connects to the database, applies migrations and builds the
// services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := NewLogger(c)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := OpenDatabase(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &App{
		config:        c,
		logger:        logger,
		db:            db,
		userService:   services.NewUserService(db, rm, c, logger.With("module", "users")),
		gadgetService: services.NewGadgetService(db, rm, c, logger.With("module", "gadgets")),
	}, nil
}

func (app *App) Logger() logging.Logger                 { return app.logger }
func (app *App) UserService() *services.UserService     { return app.userService }
func (app *App) GadgetService() *services.GadgetService { return app.gadgetService }

// Close releases the database pool.
func (app *App) Close() error {
	return app.db.Close()
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

// Run serves HTTP and the gRPC health probe until a termination signal
// arrives or one of the servers fails.
func (app *App) Run(ctx context.Context) error {
	if app.config.SecretKey == "" {
		return errors.New("secret key is not set")
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	if _, err := app.userService.EnsureDefaultAdmin(ctx, app.config.AdminUsername, app.config.AdminPassword); err != nil {
		app.logger.Error(ctx, "default admin bootstrap failed", "error", err)
	}

	handler := rest.NewHandler(app.userService, app.gadgetService, app.logger, app.config.IsDevelopment())
	router := rest.NewRouter(handler, app.logger, rest.RouterOptions{
		RateLimitRequests: app.config.RateLimitRequests,
		RateLimitWindow:   app.config.RateLimitWindow,
		CORSOrigins:       app.config.CORSOrigins,
	})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				app.logger.Error(ctx, name+" stopped", "error", err)
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", name, err)
				}
				mu.Unlock()
				cancelFunc()
			}
		}()
	}

	run("http server", rest.NewServer(app.config.HTTPAddr, router, app.logger).Run)
	if app.config.GRPCHealthAddr != "" {
		run("grpc health server", gs.NewHealthServer(app.config.GRPCHealthAddr, app.db, app.logger, 0).Run)
	}

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")

	return firstErr
}
