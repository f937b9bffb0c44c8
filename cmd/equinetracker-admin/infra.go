package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/equinetracker/equinetracker/config"
	"github.com/equinetracker/equinetracker/internal/bootstrap"
	"github.com/equinetracker/equinetracker/internal/data"
	"github.com/equinetracker/equinetracker/internal/service"
)

var errRedisNotConfigured = errors.New("redis not configured")

// adminInfra holds the connections a command opened. Redis is optional.
type adminInfra struct {
	DB    *sql.DB
	Redis redis.UniversalClient
}

// connectInfra opens Postgres and, when configured, Redis. A Redis failure is
// logged and the command continues without the cache.
func connectInfra(cmdCtx *commandContext, wantRedis bool) (*adminInfra, error) {
	db, err := bootstrap.ConnectDB(cmdCtx.Ctx, cmdCtx.Config.Postgres, cmdCtx.Logger)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	infra := &adminInfra{DB: db}
	if !wantRedis {
		return infra, nil
	}

	client, err := maybeConnectRedis(cmdCtx, &cmdCtx.Config.Redis)
	switch {
	case errors.Is(err, errRedisNotConfigured):
		cmdCtx.Logger.Info("no redis configuration detected; skipping redis connection")
	case err != nil:
		cmdCtx.Logger.Warn("redis unavailable; continuing without barn cache", "error", err)
	default:
		infra.Redis = client
	}
	return infra, nil
}

//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func maybeConnectRedis(cmdCtx *commandContext, cfg *config.RedisConfig) (redis.UniversalClient, error) {
	if !hasRedisConfig(cfg) {
		return nil, errRedisNotConfigured
	}
	client, err := bootstrap.ConnectRedis(cmdCtx.Ctx, *cfg, cmdCtx.Logger)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

func hasRedisConfig(cfg *config.RedisConfig) bool {
	if cfg == nil {
		return false
	}
	if cfg.UseCluster {
		return len(cfg.ClusterNodes) > 0 || cfg.URI != ""
	}
	if cfg.UseSentinel {
		return len(cfg.SentinelNodes) > 0
	}
	return cfg.URI != ""
}

// shellService builds the same ShellService the server uses, so admin writes
// keep the barn cache coherent.
func (i *adminInfra) shellService(cfg *config.AppConfig, logger *slog.Logger) *service.ShellService {
	opts := service.ShellServiceOptions{
		Users:    data.NewUserRepo(i.DB),
		Barns:    data.NewBarnRepo(i.DB),
		CacheTTL: cfg.Shell.BarnCacheTTL,
		Logger:   logger,
	}
	if i.Redis != nil {
		opts.Cache = data.NewRedisCacheRepo(i.Redis)
	}
	return service.NewShellService(opts)
}

func (i *adminInfra) Close(logger *slog.Logger) {
	if i == nil {
		return
	}
	var closeErr error
	if i.DB != nil {
		if err := i.DB.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close db: %w", err))
		}
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close redis: %w", err))
		}
	}
	if closeErr != nil {
		logger.Warn("infrastructure close failed", "error", closeErr)
	}
}
