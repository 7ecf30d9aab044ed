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

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	migrations "github.com/filestreamhq/filestream/db"
	"github.com/filestreamhq/filestream/internal/config"
	"github.com/filestreamhq/filestream/internal/db"
	"github.com/filestreamhq/filestream/internal/handlers"
	"github.com/filestreamhq/filestream/internal/intake"
	"github.com/filestreamhq/filestream/internal/lifecycle"
	"github.com/filestreamhq/filestream/internal/logger"
	"github.com/filestreamhq/filestream/internal/registry"
	"github.com/filestreamhq/filestream/internal/resolver"
	"github.com/filestreamhq/filestream/internal/server"
	"github.com/filestreamhq/filestream/internal/telegram"
)

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if cfg.Telegram.BotToken == "" {
		return config.Config{}, fmt.Errorf("telegram.bot_token is required")
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBPool(lc fx.Lifecycle, cfg config.Config, log *slog.Logger) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	migrationsFS, err := fs.Sub(migrations.MigrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrations fs: %w", err)
	}
	if err := db.MigrateUp(log, cfg.Postgres, migrationsFS); err != nil {
		return nil, err
	}

	pool, err := db.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			pool.Close()
			return nil
		},
	})
	return pool, nil
}

func provideBot(cfg config.Config, log *slog.Logger) (*telegram.Bot, error) {
	return telegram.NewBot(log, cfg.Telegram.BotToken)
}

func provideIntake(cfg config.Config, log *slog.Logger, files *registry.Service, bot *telegram.Bot) *intake.Service {
	var notifier intake.Notifier
	if audit := intake.NewAuditNotifier(bot, cfg.Telegram.LogChannelID); audit != nil {
		notifier = audit
	}
	return intake.NewService(log, files, notifier, cfg.Web.BaseURL)
}

func provideResolver(log *slog.Logger, files *registry.Service, bot *telegram.Bot) *resolver.Service {
	return resolver.NewService(log, files, bot)
}

func provideMonitor(cfg config.Config, log *slog.Logger, files *registry.Service, bot *telegram.Bot) *lifecycle.Monitor {
	probeInterval, err := time.ParseDuration(cfg.Sweep.ProbeInterval)
	if err != nil {
		probeInterval = 0
	}
	return lifecycle.NewMonitor(log, files, bot, telegram.IsUnreachable, probeInterval)
}

func provideListener(log *slog.Logger, bot *telegram.Bot, uploads *intake.Service, files *registry.Service, monitor *lifecycle.Monitor) *telegram.Listener {
	return telegram.NewListener(log, bot, uploads, files, monitor)
}

func provideServer(cfg config.Config, log *slog.Logger, res *resolver.Service, bot *telegram.Bot) *server.Server {
	return server.NewServer(log, cfg.Server.Addr,
		handlers.NewHomeHandler(),
		handlers.NewWatchHandler(log, res, cfg.Web.Mode, bot.Username()),
	)
}

func startListener(lc fx.Lifecycle, listener *telegram.Listener) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go listener.Run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func startMonitor(lc fx.Lifecycle, cfg config.Config, monitor *lifecycle.Monitor) {
	if !cfg.Sweep.Enabled {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return monitor.Start(ctx, cfg.Sweep.Spec)
		},
		OnStop: func(context.Context) error {
			cancel()
			monitor.Stop()
			return nil
		},
	})
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}

func main() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBPool,
			provideBot,

			registry.NewService,
			provideIntake,
			provideResolver,
			provideMonitor,
			provideListener,
			provideServer,
		),
		fx.Invoke(
			startListener,
			startMonitor,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}
