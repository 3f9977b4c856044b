package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/Ztiany/av-device-server/internal/infra/buildinfo"
	"github.com/Ztiany/av-device-server/internal/infra/confloader"
	"github.com/Ztiany/av-device-server/internal/infra/shutdown"
	"github.com/Ztiany/av-device-server/internal/server/bootstrap"
	"github.com/Ztiany/av-device-server/internal/telemetry/logger"
)

// serve starts the listeners and blocks until SIGINT, SIGTERM or the
// cancellation of the app context, then shuts down gracefully.
func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	log.Info("starting av-device-server",
		"version", buildinfo.Get().Version,
		"root", cfg.Server.Root,
	)

	b, err := bootstrap.New(cfg, bootstrap.Options{
		Logger:   log,
		Notifier: bootstrap.NewNotifier(c.App.Writer, c.Bool("no-color")),
	})
	if err != nil {
		return err
	}

	if _, err := b.Start(); err != nil {
		// The admin listener may be up even when no public one is.
		b.Shutdown(context.Background())
		return err
	}

	sh := shutdown.NewHandler(cfg.Server.Shutdown.Timeout)
	sh.OnShutdown(b.Shutdown)

	if path := c.String("config"); path != "" {
		w, err := watchConfig(c, path, log)
		if err != nil {
			log.Warn("configuration watcher disabled", "error", err)
		} else {
			sh.OnShutdown(func(context.Context) error {
				return w.Stop()
			})
		}
	}

	if err := sh.Wait(c.Context); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped", "signal", fmt.Sprint(sh.Signal()))
	return nil
}

// watchConfig re-reads the configuration when the file changes and applies
// the new log level. Other settings need a restart.
func watchConfig(c *cli.Context, path string, log logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(path, confloader.WithWatcherLogger(logger.Slog(log)))
	if err != nil {
		return nil, err
	}

	w.OnChange(func(string) {
		cfg, err := loadConfig(c)
		if err != nil {
			log.Warn("configuration reload rejected", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	w.StartAsync()
	return w, nil
}
