package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/vaultcore/pkg/config"
	"github.com/dmitrymomot/vaultcore/pkg/docstore"
	"github.com/dmitrymomot/vaultcore/pkg/kvstore"
	"github.com/dmitrymomot/vaultcore/pkg/logger"
)

// closer releases a backend connection.
type closer func(ctx context.Context)

func noopCloser(context.Context) {}

// openKV opens the auth record and rate limit backend named by cfg.Store.
func openKV(ctx context.Context, cfg cliConfig, log *slog.Logger, opts ...config.Option) (kvstore.Store, closer, error) {
	log = log.With(logger.Backend(cfg.Store))

	switch cfg.Store {
	case "file", "":
		dir, err := cfg.stateDir()
		if err != nil {
			return nil, nil, err
		}
		store, err := kvstore.NewFileStore(dir)
		if err != nil {
			return nil, nil, err
		}
		log.DebugContext(ctx, "file store opened", slog.String("dir", store.Dir()))
		return store, noopCloser, nil

	case "memory":
		return kvstore.NewMemoryStore(), noopCloser, nil

	case "redis":
		var rc kvstore.RedisConfig
		if err := config.Load(&rc, opts...); err != nil {
			return nil, nil, err
		}
		client, err := kvstore.ConnectRedis(ctx, rc)
		if err != nil {
			return nil, nil, err
		}
		if err := kvstore.RedisHealthcheck(client)(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		store := kvstore.NewRedisStore(client, rc.ScanBatchSize)
		return store, func(context.Context) { _ = store.Close() }, nil

	case "postgres":
		var pc kvstore.PostgresConfig
		if err := config.Load(&pc, opts...); err != nil {
			return nil, nil, err
		}
		pool, err := kvstore.ConnectPostgres(ctx, pc)
		if err != nil {
			return nil, nil, err
		}
		if err := kvstore.PostgresHealthcheck(pool)(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		if err := kvstore.EnsureSchema(ctx, pool, pc, log); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return kvstore.NewPostgresStore(pool), func(context.Context) { pool.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store)
}

// openDocs opens the sealed item backend named by cfg.Docs. The local backend
// shares kv with the auth record.
func openDocs(ctx context.Context, cfg cliConfig, kv kvstore.Store, log *slog.Logger, opts ...config.Option) (docstore.Store, closer, error) {
	log = log.With(logger.Backend(cfg.Docs))

	switch cfg.Docs {
	case "local", "":
		return docstore.NewKVStore(kv, ""), noopCloser, nil

	case "memory":
		return docstore.NewMemoryStore(), noopCloser, nil

	case "mongo":
		var mc docstore.MongoConfig
		if err := config.Load(&mc, opts...); err != nil {
			return nil, nil, err
		}
		client, err := docstore.ConnectMongo(ctx, mc)
		if err != nil {
			return nil, nil, err
		}
		if err := docstore.MongoHealthcheck(client)(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		log.DebugContext(ctx, "mongo connected", slog.String("collection", mc.Collection))
		return docstore.NewMongoStore(client, mc), func(ctx context.Context) { _ = client.Disconnect(ctx) }, nil

	case "s3":
		var sc docstore.S3Config
		if err := config.Load(&sc, opts...); err != nil {
			return nil, nil, err
		}
		store, err := docstore.NewS3Store(ctx, sc)
		if err != nil {
			return nil, nil, err
		}
		return store, noopCloser, nil
	}
	return nil, nil, fmt.Errorf("unknown document backend %q", cfg.Docs)
}
