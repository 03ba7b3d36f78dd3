package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/recipe-service/internal/config"
	"github.com/Dan9191/recipe-service/internal/handler"
	"github.com/Dan9191/recipe-service/internal/jobs"
	"github.com/Dan9191/recipe-service/internal/middleware"
	"github.com/Dan9191/recipe-service/internal/repository"
	"github.com/Dan9191/recipe-service/internal/service"
	"github.com/Dan9191/recipe-service/internal/storage"
	"github.com/Dan9191/recipe-service/internal/utils/email"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 15 * time.Second

// store is what the server needs from either persistence backend
type store interface {
	service.Store
	Ping(ctx context.Context) error
	ListImages(ctx context.Context) ([]string, error)
}

// setup initializes the logger and loads configuration
func setup() (*logrus.Logger, *config.Config, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.NewConfig()
	if err != nil {
		return logger, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	return logger, cfg, nil
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// openStore returns the PostgreSQL repository with migrations applied, or an
// in-memory store when memory is set
func openStore(ctx context.Context, cfg *config.Config, memory bool, logger *logrus.Logger) (store, func(), error) {
	if memory {
		logger.Warn("Using in-memory store, data is lost on exit")
		return repository.NewMemory(), func() {}, nil
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	repo := repository.NewRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repo, func() { db.Close() }, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	logger, cfg, err := setup()
	if err != nil {
		return err
	}

	if !cmd.Bool("memory") && cfg.UsesDefaultJWTSecret() {
		logger.Warn("JWT_SECRET is not set, tokens are signed with the built-in development secret")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, cmd.Bool("memory"), logger)
	if err != nil {
		return err
	}
	defer closeStore()

	images, err := storage.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// Initialize layers
	opts := []service.Option{service.WithImages(images)}
	if cfg.MailEnabled() {
		opts = append(opts, service.WithNotifier(email.NewSender(cfg, logger)))
	}
	svc, err := service.NewService(st, logger, cfg, opts...)
	if err != nil {
		return err
	}
	h := handler.NewHandler(svc, st, logger)

	routes := handler.RouterConfig{
		Auth:     middleware.AuthMiddleware(svc, logger),
		MediaURL: cfg.MediaURL,
	}
	if cfg.RateLimit > 0 {
		routes.TokenLimiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}
	if local, ok := images.(*storage.LocalStore); ok {
		routes.MediaRoot = local.Root()
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.NewRouter(h, routes, logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server")
		return server.Shutdown(shutdownCtx)
	})
	if cfg.JanitorSchedule != "" {
		janitor := jobs.NewJanitor(st, images, logger, cfg.JanitorSchedule)
		g.Go(func() error {
			return janitor.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func migrate(ctx context.Context, _ *cli.Command) error {
	logger, cfg, err := setup()
	if err != nil {
		return err
	}
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.NewRepository(db).Migrate(ctx); err != nil {
		return err
	}
	logger.Info("Migrations applied")
	return nil
}

func createSuperuser(ctx context.Context, cmd *cli.Command) error {
	logger, cfg, err := setup()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(ctx, cfg, false, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := service.NewService(st, logger, cfg)
	if err != nil {
		return err
	}
	user, err := svc.CreateSuperuser(ctx, cmd.String("email"), cmd.String("password"))
	if err != nil {
		return err
	}
	logger.Infof("Superuser %s created", user.Email)
	return nil
}
