package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/equinetracker/equinetracker/config"
)

const defaultEnvFile = ".env"

// InitLogger builds the JSON logger at the given LOG_LEVEL and installs it as the default.
// An unknown level falls back to info; Validate reports it separately.
func InitLogger(level string) *slog.Logger {
	return initLogger(os.Stdout, level)
}

func initLogger(w io.Writer, level string) *slog.Logger {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig reads ENV_FILE (default .env) when present, then parses the
// environment into AppConfig and sanitizes it. Validation is left to the caller.
func LoadConfig() (config.AppConfig, error) {
	file := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if file == "" {
		file = defaultEnvFile
	}
	if err := godotenv.Load(file); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}
