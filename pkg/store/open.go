package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/gridcraft/pkg/cache"
	"github.com/matzehuels/gridcraft/pkg/config"
	"github.com/matzehuels/gridcraft/pkg/errors"
	"github.com/matzehuels/gridcraft/pkg/observability"
)

// Open connects to the configured backend. Network backends are pinged with
// retries before Open returns. The returned store reports reads and writes to
// the registered observability hooks.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case config.BackendMemory:
		s = NewMemoryStore()
	case config.BackendFile, "":
		s, err = NewFileStore(cfg.Dir)
	case config.BackendRedis:
		s, err = openRedis(ctx, cfg)
	case config.BackendMongo:
		s, err = openMongo(ctx, cfg)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	backend := cfg.Backend
	if backend == "" {
		backend = config.BackendFile
	}
	return Instrument(s, backend), nil
}

// NewRedisClient returns a client for the configured Redis server.
func NewRedisClient(cfg config.Store) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// PingRedis checks connectivity, retrying transient failures.
func PingRedis(ctx context.Context, client *redis.Client) error {
	err := cache.RetryWithBackoff(ctx, func() error {
		return cache.Retryable(client.Ping(ctx).Err())
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, err, "ping redis at %s", client.Options().Addr)
	}
	return nil
}

func openRedis(ctx context.Context, cfg config.Store) (Store, error) {
	client := NewRedisClient(cfg)
	if err := PingRedis(ctx, client); err != nil {
		client.Close()
		return nil, err
	}
	return NewRedisStore(client, cfg.TTL.Duration), nil
}

func openMongo(ctx context.Context, cfg config.Store) (Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "connect mongo")
	}
	err = cache.RetryWithBackoff(ctx, func() error {
		return cache.Retryable(client.Ping(ctx, readpref.Primary()))
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "ping mongo")
	}
	return NewMongoStore(client, cfg.MongoDatabase), nil
}

// =============================================================================
// Instrumentation
// =============================================================================

type instrumented struct {
	Store
	backend string
}

// Instrument reports Get and Put calls on s to the store hooks.
func Instrument(s Store, backend string) Store {
	return &instrumented{Store: s, backend: backend}
}

func (s *instrumented) Get(ctx context.Context, id string) (*Snapshot, error) {
	start := time.Now()
	snap, err := s.Store.Get(ctx, id)
	observability.Store().OnLoad(ctx, s.backend, id, time.Since(start), err)
	return snap, err
}

func (s *instrumented) Put(ctx context.Context, snap *Snapshot) error {
	start := time.Now()
	err := s.Store.Put(ctx, snap)
	observability.Store().OnSave(ctx, s.backend, snap.ID, time.Since(start), err)
	return err
}
