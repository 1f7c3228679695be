package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.pilab.hu/shadow-auth/cache"
	cacheredis "go.pilab.hu/shadow-auth/cache/redis"
	"go.pilab.hu/shadow-auth/config"
	"go.pilab.hu/shadow-auth/domain"
	"go.pilab.hu/shadow-auth/internal/server"
	"go.pilab.hu/shadow-auth/mongodb"
	"go.pilab.hu/shadow-auth/sqlstore"
)

// accountStore is an opened account repository together with its health check and
// shutdown hook.
type accountStore struct {
	repo   domain.AccountRepository
	health server.HealthCheck
	close  func(ctx context.Context)
}

// openAccountStore connects the backend selected by STORE_DRIVER. With migrate set,
// the SQL schema is created before the repository is returned. The mongo repository
// always ensures its indexes.
func openAccountStore(ctx context.Context, cfg *config.ServerConfig, migrate bool) (*accountStore, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		if err := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName); err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		repo, err := mongodb.NewAccountRepository(ctx, mongodb.GetDB())
		if err != nil {
			mongodb.CloseMongoDB(ctx)
			return nil, err
		}
		return &accountStore{
			repo:   repo,
			health: mongodb.Ping,
			close:  mongodb.CloseMongoDB,
		}, nil

	case config.StoreDriverSQL, "":
		db, err := sqlstore.NewDB(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := sqlstore.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return &accountStore{
			repo:   sqlstore.NewAccountRepository(db),
			health: db.PingContext,
			close: func(context.Context) {
				if err := db.Close(); err != nil {
					appLogger.Error(context.Background(), "Closing database failed", err)
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// refreshStore is the opened refresh token store with its health check and shutdown hook.
type refreshStore struct {
	store  cache.RefreshTokenStore
	health server.HealthCheck
	close  func() error
}

func openRefreshStore(ctx context.Context, cfg *config.ServerConfig) (*refreshStore, error) {
	switch cfg.RefreshStore {
	case config.RefreshStoreMemory:
		store := cache.NewMemoryRefreshStore()
		return &refreshStore{store: store, close: store.Close}, nil

	case config.RefreshStoreRedis, "":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store := cacheredis.NewRefreshStore(client, cfg.RedisKeyPrefix)
		if err := store.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis at %s: %w", cfg.RedisAddr, err)
		}
		return &refreshStore{store: store, health: store.Ping, close: client.Close}, nil
	}
	return nil, fmt.Errorf("unknown refresh store %q", cfg.RefreshStore)
}
