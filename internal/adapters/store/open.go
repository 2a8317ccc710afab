package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/Sketch/internal/config"
	"github.com/dkeye/Sketch/internal/core"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

// Open builds the report store selected by cfg.Driver. The returned close
// func releases the underlying client.
func Open(ctx context.Context, cfg config.StoreConfig) (core.ReportStore, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.Driver {
	case "", "memory":
		log.Info().Str("module", "adapters.store").Msg("using in-memory report store")
		return NewMemoryReportStore(), noop, nil

	case "mongo":
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("ping mongo: %w", err)
		}
		s := NewMongoReportStore(client.Database(cfg.MongoDatabase))
		if err := s.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Str("module", "adapters.store").Msg("report index")
		}
		log.Info().Str("module", "adapters.store").Str("database", cfg.MongoDatabase).Msg("using mongo report store")
		return s, client.Disconnect, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		log.Info().Str("module", "adapters.store").Str("addr", cfg.RedisAddr).Msg("using redis report store")
		return NewRedisReportStore(client), func(context.Context) error { return client.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
