package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/jackc/pgx/v5/pgxpool"

	migrations "github.com/mursal-app/mursal/db"
	"github.com/mursal-app/mursal/internal/accounts"
	"github.com/mursal-app/mursal/internal/broadcasts"
	"github.com/mursal-app/mursal/internal/config"
	"github.com/mursal-app/mursal/internal/contacts"
	"github.com/mursal-app/mursal/internal/db"
	"github.com/mursal-app/mursal/internal/events"
	"github.com/mursal-app/mursal/internal/handlers"
	"github.com/mursal-app/mursal/internal/ingest"
	"github.com/mursal-app/mursal/internal/logger"
	"github.com/mursal-app/mursal/internal/media"
	"github.com/mursal-app/mursal/internal/server"
	"github.com/mursal-app/mursal/internal/storage"
	"github.com/mursal-app/mursal/internal/tags"
	"github.com/mursal-app/mursal/internal/version"
)

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func main() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,

			events.NewHub,
			provideStorageProvider,
			provideMediaService,

			accounts.NewService,
			provideContactsService,
			provideTagsService,
			provideBroadcastsService,
			provideIngestService,

			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideAuthHandler),
			provideServerHandler(handlers.NewContactsHandler),
			provideServerHandler(handlers.NewTagsHandler),
			provideServerHandler(handlers.NewBroadcastsHandler),
			provideServerHandler(provideUploadHandler),
			provideServerHandler(provideEventsHandler),
			provideServerHandler(handlers.NewMediaHandler),

			provideServer,
		),
		fx.Invoke(
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx := context.Background()

	conn, err := db.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

func provideStorageProvider(cfg config.Config) storage.Provider {
	return storage.NewLocal(cfg.Storage.MediaRoot, cfg.Storage.PublicBaseURL)
}

func provideMediaService(log *slog.Logger, provider storage.Provider) *media.Service {
	return media.NewService(log, provider)
}

func provideContactsService(log *slog.Logger, pool *pgxpool.Pool, hub *events.Hub) *contacts.Service {
	return contacts.NewService(log, pool, hub)
}

func provideTagsService(log *slog.Logger, pool *pgxpool.Pool, hub *events.Hub) *tags.Service {
	return tags.NewService(log, pool, hub)
}

func provideBroadcastsService(log *slog.Logger, pool *pgxpool.Pool, contactService *contacts.Service, mediaService *media.Service, hub *events.Hub) *broadcasts.Service {
	return broadcasts.NewService(log, pool, contactService, mediaService, hub)
}

func provideIngestService(log *slog.Logger, pool *pgxpool.Pool, hub *events.Hub) *ingest.Service {
	return ingest.NewService(log, pool, hub)
}

func provideAuthHandler(log *slog.Logger, accountService *accounts.Service, cfg config.Config) (*handlers.AuthHandler, error) {
	expiresIn, err := time.ParseDuration(cfg.Auth.JWTExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("parse jwt expiry: %w", err)
	}
	return handlers.NewAuthHandler(log, accountService, cfg.Auth.JWTSecret, expiresIn), nil
}

func provideUploadHandler(log *slog.Logger, ingestService *ingest.Service, cfg config.Config) *handlers.UploadHandler {
	return handlers.NewUploadHandler(log, ingestService, cfg.Upload.MaxBytes)
}

func provideEventsHandler(log *slog.Logger, hub *events.Hub) *handlers.EventsHandler {
	return handlers.NewEventsHandler(log, hub)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.Config.Auth.JWTSecret, params.ServerHandlers...)
}

func startServer(
	lc fx.Lifecycle,
	logger *slog.Logger,
	srv *server.Server,
	shutdowner fx.Shutdowner,
	cfg config.Config,
	accountService *accounts.Service,
) {
	fmt.Printf("Starting Mursal %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			migrationFiles, err := fs.Sub(migrations.MigrationsFS, "migrations")
			if err != nil {
				return fmt.Errorf("migrations fs: %w", err)
			}
			if err := db.RunMigrate(logger, cfg.Postgres, migrationFiles, "up", nil); err != nil {
				return err
			}

			if err := accountService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
				return err
			}
			if cfg.Admin.Password == "change-your-password-here" {
				logger.Warn("admin password uses default placeholder; please update config.toml")
			}

			go func() {
				if err := srv.Start(); err != nil { // block until server is stopped
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			// graceful shutdown
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
