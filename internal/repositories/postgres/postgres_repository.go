package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/notesvault/notes-service/internal/cache"
	"github.com/notesvault/notes-service/internal/repositories"
	"github.com/notesvault/notes-service/internal/repositories/sessionstore"
)

// GormRepository implements the main Repository interface over gorm, with
// sessions in redis (or memory when redis is absent).
type GormRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	user    repositories.UserRepository
	note    repositories.NoteRepository
	session repositories.SessionRepository
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
	// SessionIndexTTL should match the longest session lifetime.
	SessionIndexTTL time.Duration
}

// NewRepository creates the repository manager with all sub-repositories.
func NewRepository(config RepositoryConfig) *GormRepository {
	repo := &GormRepository{
		db:           config.DB,
		redisClient:  config.RedisClient,
		cacheManager: cache.NewCacheManager(config.RedisClient),
	}

	repo.user = NewUserRepository(config.DB)
	repo.note = NewNoteRepository(config.DB)

	if config.RedisClient != nil {
		repo.session = sessionstore.NewRedisStore(config.RedisClient, config.SessionIndexTTL)
	} else {
		repo.session = sessionstore.NewMemoryStore()
	}

	return repo
}

// Cache exposes the cache manager so services can share it.
func (r *GormRepository) Cache() *cache.CacheManager {
	return r.cacheManager
}

func (r *GormRepository) User() repositories.UserRepository {
	return r.user
}

func (r *GormRepository) Note() repositories.NoteRepository {
	return r.note
}

func (r *GormRepository) Session() repositories.SessionRepository {
	return r.session
}

// WithTransaction executes fn within a database transaction. The session
// store is shared unchanged; only DB-backed repositories join the
// transaction.
func (r *GormRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &GormRepository{
			db:           tx,
			redisClient:  r.redisClient,
			cacheManager: r.cacheManager,
			user:         NewUserRepository(tx),
			note:         NewNoteRepository(tx),
			session:      r.session,
		}
		return fn(txRepo)
	})
}

// Ping checks the health of database and cache connections.
func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}
	return nil
}

// Close closes all connections.
func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close redis: %w", err)
		}
	}
	return nil
}
