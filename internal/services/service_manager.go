package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/notesvault/notes-service/internal/cache"
	"github.com/notesvault/notes-service/internal/events"
	"github.com/notesvault/notes-service/internal/repositories"
	"github.com/notesvault/notes-service/internal/storage"
	"github.com/notesvault/notes-service/internal/validator"
)

// ServiceManager aggregates all services and owns their lifecycle.
type ServiceManager interface {
	Auth() AuthService
	Note() NoteService
	Account() AccountService

	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// ServiceManagerConfig holds the cross-service settings.
type ServiceManagerConfig struct {
	SessionIdleTimeout     time.Duration
	SessionRememberTimeout time.Duration
}

type serviceManager struct {
	// Dependencies
	repo      repositories.Repository
	store     *storage.LocalStore
	publisher events.EventPublisher
	cache     *cache.CacheManager
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig

	// Service instances
	authService    AuthService
	noteService    NoteService
	accountService AccountService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a service manager with all dependencies.
func NewServiceManager(
	repo repositories.Repository,
	store *storage.LocalStore,
	publisher events.EventPublisher,
	cacheManager *cache.CacheManager,
	logger *slog.Logger,
	v *validator.Validator,
	config ServiceManagerConfig,
) ServiceManager {
	return &serviceManager{
		repo:      repo,
		store:     store,
		publisher: publisher,
		cache:     cacheManager,
		logger:    logger,
		validator: v,
		config:    config,
	}
}

func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return fmt.Errorf("service manager already initialized")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository not ready: %w", err)
	}

	sm.authService = NewAuthService(sm.repo, sm.store, sm.publisher, sm.cache, sm.validator, sm.logger, AuthConfig{
		IdleTimeout:     sm.config.SessionIdleTimeout,
		RememberTimeout: sm.config.SessionRememberTimeout,
	})
	sm.noteService = NewNoteService(sm.repo, sm.store, sm.publisher, sm.cache, sm.validator, sm.logger)
	sm.accountService = NewAccountService(sm.repo, sm.cache, sm.logger)

	sm.initialized = true
	sm.logger.Info("services initialized")
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}
	sm.shutdown = true

	if err := sm.publisher.Close(); err != nil {
		return fmt.Errorf("closing event publisher: %w", err)
	}

	sm.logger.Info("services shut down")
	return nil
}

func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.authService
}

func (sm *serviceManager) Note() NoteService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.noteService
}

func (sm *serviceManager) Account() AccountService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.accountService
}
