package app

import (
	"context"
	"errors"
	"time"

	"auth-gateway/internal/auth/principal"
	"auth-gateway/internal/config"
	"auth-gateway/internal/db"
	"auth-gateway/internal/logger"
	"auth-gateway/internal/redis"
)

const dbConnectTimeout = 30 * time.Second

type Infra struct {
	DB         *db.DB // nil when principals come from a file
	Redis      *redis.Client
	Principals principal.Store
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	infra := &Infra{}

	if cfg.DatabaseDSN != "" {
		database, err := db.Open(ctx, cfg.DatabaseDSN, dbConnectTimeout)
		if err != nil {
			return nil, err
		}

		if err := db.RunPrincipalsMigration(ctx, database.DB); err != nil {
			_ = database.Close()
			return nil, err
		}

		infra.DB = database
		infra.Principals = principal.NewPostgresStore(database)
		logger.Info("database ready", nil)
	} else {
		store, err := principal.LoadFile(cfg.PrincipalsFile)
		if err != nil {
			return nil, err
		}

		infra.Principals = store
		logger.Info("principals loaded from file", map[string]any{
			"path": cfg.PrincipalsFile,
		})
	}

	redisClient, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	infra.Redis = redisClient

	logger.Info("redis ready", nil)

	return infra, nil
}

func (i *Infra) Close() error {
	var errs []error
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	if i.DB != nil {
		errs = append(errs, i.DB.Close())
	}
	return errors.Join(errs...)
}
