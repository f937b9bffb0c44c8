package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/equinetracker/equinetracker/config"
	"github.com/equinetracker/equinetracker/internal/bootstrap"
	"github.com/equinetracker/equinetracker/internal/devseed"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.ErrorContext(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context) (err error) {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger := bootstrap.InitLogger(cfg.LogLevel)
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.InfoContext(ctx, "starting equinetracker",
		"db_host", cfg.Postgres.Host,
		"db_name", cfg.Postgres.Name,
		"auth_mode", cfg.Auth.Mode,
		"reload_mode", cfg.Shell.ReloadMode,
		"switch_failure", cfg.Shell.SwitchFailure,
		"dev", cfg.IsDev)

	infra, err := bootstrap.OpenInfrastructure(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := infra.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	if cfg.Postgres.RunMigrationsOnStart {
		if err = bootstrap.RunMigrations(ctx, infra.DB, logger); err != nil {
			return err
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	svcs, err := bootstrap.NewServices(&cfg, infra, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := svcs.Close(); cerr != nil {
			logger.Warn("close metrics failed", "error", cerr)
		}
	}()

	if cfg.DevSeed && cfg.Auth.Mode == config.AuthModeMock {
		dev := cfg.Auth.DevAuth
		if serr := devseed.Run(ctx, devseed.Deps{Barns: svcs.Shell, Users: svcs.Users, Logger: logger}, devseed.User{
			ID:       dev.UserID,
			FullName: strings.TrimSpace(dev.FirstName + " " + dev.LastName),
			Email:    dev.Email,
			Role:     "admin",
		}); serr != nil {
			logger.WarnContext(ctx, "dev seed failed", "error", serr)
		}
	}

	server, err := bootstrap.NewHTTPServer(&cfg, svcs, logger)
	if err != nil {
		return err
	}
	return bootstrap.Serve(ctx, server, logger)
}
