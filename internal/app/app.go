// Package app wires configuration into the services shared by the HTTP
// server and the command-line tool.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ainews/newsroom/backend/content-services/internal/config"
	"github.com/ainews/newsroom/backend/content-services/internal/content/service"
	"github.com/ainews/newsroom/backend/content-services/internal/database"
	"github.com/ainews/newsroom/backend/content-services/internal/fieldops"
	"github.com/ainews/newsroom/backend/content-services/internal/locale"
	"github.com/ainews/newsroom/backend/content-services/internal/migration"
	"github.com/ainews/newsroom/backend/content-services/internal/storage"
	"github.com/ainews/newsroom/backend/content-services/internal/store"
	"github.com/ainews/newsroom/backend/content-services/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store backends reported by Ready.
const (
	BackendMongo  = "mongodb"
	BackendMemory = "memory"
)

// App holds the opened connections and the services built on them.
type App struct {
	Config     *config.Config
	DB         store.Database
	Backend    string
	Redis      *redis.Client
	Fields     *fieldops.Engine
	Migrations *migration.Pipeline
	Locales    *locale.Syncer
	Content    *service.Service

	mongo *mongo.Client
}

// New opens the store, Redis and the locale sink described by cfg.
//
// A configured MongoDB that cannot be reached falls back to the in-memory
// store with a warning, as does a configured Redis (the migration lease then
// only guards this process). A configured object sink that cannot be opened
// is an error.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, max(cfg.MongoDB.ConnectRetries, 1), cfg.MongoDB.RetryWait)
		if err != nil {
			logger.Warnf("mongo unavailable, using in-memory store: %v", err)
		} else {
			db := client.Database(cfg.MongoDB.Database)
			if err := database.EnsureContentIndexes(ctx, db, cfg.Content.MasterCollection); err != nil {
				logger.Warnf("ensure indexes on %s: %v", cfg.Content.MasterCollection, err)
			}
			a.mongo = client
			a.DB = store.NewMongoDatabase(db)
			a.Backend = BackendMongo
			logger.Infof("connected to mongo database %s", cfg.MongoDB.Database)
		}
	}
	if a.DB == nil {
		mem := store.NewMemory()
		mem.EnsureUnique(cfg.Content.MasterCollection, "semanticId")
		mem.EnsureUnique(cfg.Content.MasterCollection, "slug")
		a.DB = mem
		a.Backend = BackendMemory
	}

	var locker migration.Locker = migration.NewLocalLocker()
	if cfg.Redis.Host != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warnf("redis ping failed, using in-process migration lease: %v", err)
			_ = rdb.Close()
		} else {
			a.Redis = rdb
			locker = migration.NewRedisLocker(rdb, cfg.Migration.LeasePrefix)
			logger.Infof("connected to redis at %s", cfg.Redis.Addr())
		}
	}

	sink, err := a.openSink(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	langs := cfg.Content.Languages
	a.Fields = fieldops.NewEngine(a.DB, cfg.Content.AllowedCollections())
	a.Migrations = migration.New(a.DB,
		migration.WithLocker(locker),
		migration.WithLeaseTTL(cfg.Migration.LeaseTTL),
		migration.WithLanguages(langs),
	)
	a.Locales = locale.NewSyncer(a.DB, sink, langs)
	a.Content = service.New(a.DB, cfg.Content.MasterCollection, langs)
	return a, nil
}

func (a *App) openSink(ctx context.Context) (locale.Sink, error) {
	if a.Config.Content.LocaleSink != config.SinkObject {
		return locale.NewCollectionSink(a.DB), nil
	}
	objects, err := storage.NewMinIOStorage(ctx, &a.Config.MinIO)
	if err != nil {
		return nil, fmt.Errorf("open locale object store: %w", err)
	}
	logger.Infof("locale views stored in bucket %s", objects.Bucket())
	return locale.NewObjectSink(objects), nil
}

// Ready reports the store backend and whether it currently answers.
func (a *App) Ready(ctx context.Context) (string, error) {
	if a.mongo == nil {
		return a.Backend, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return a.Backend, a.mongo.Ping(ctx, nil)
}

// Close releases the connections opened by New.
func (a *App) Close(ctx context.Context) {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			logger.Warnf("mongo disconnect: %v", err)
		}
	}
}
