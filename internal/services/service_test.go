package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/notesvault/notes-service/internal/cache"
	"github.com/notesvault/notes-service/internal/events"
	"github.com/notesvault/notes-service/internal/models"
	"github.com/notesvault/notes-service/internal/repositories"
	"github.com/notesvault/notes-service/internal/repositories/postgres"
	"github.com/notesvault/notes-service/internal/storage"
	"github.com/notesvault/notes-service/internal/validator"
	"github.com/notesvault/notes-service/pkg"
)

// testEnv wires the full service stack against an in-memory sqlite database,
// the in-memory session store and the mock event publisher.
type testEnv struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	store     *storage.LocalStore
	publisher *events.MockEventPublisher
	validator *validator.Validator
	logger    *slog.Logger

	authConfig AuthConfig

	auth    AuthService
	notes   NoteService
	account AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		// Match production so driver errors surface as gorm sentinels.
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database instance: %v", err)
	}
	// One connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := pkg.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate schema: %v", err)
	}

	repo := postgres.NewRepository(postgres.RepositoryConfig{DB: db})

	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create local store: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	publisher := events.NewMockEventPublisher(logger)
	v := validator.New()

	authConfig := AuthConfig{
		IdleTimeout:     30 * time.Minute,
		RememberTimeout: 30 * 24 * time.Hour,
	}

	return &testEnv{
		repo:       repo,
		cache:      repo.Cache(),
		store:      store,
		publisher:  publisher,
		validator:  v,
		logger:     logger,
		authConfig: authConfig,
		auth:       NewAuthService(repo, store, publisher, repo.Cache(), v, logger, authConfig),
		notes:      NewNoteService(repo, store, publisher, repo.Cache(), v, logger),
		account:    NewAccountService(repo, repo.Cache(), logger),
	}
}

// register creates an account and fails the test on any non-success outcome.
func (e *testEnv) register(t *testing.T, name, email, password string) *models.User {
	t.Helper()
	result, err := e.auth.Register(context.Background(), &models.RegisterRequest{
		FullName: name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("Failed to register %s: %v", email, err)
	}
	if !result.Success {
		t.Fatalf("Registration of %s rejected: %s", email, result.Message)
	}
	return result.User
}

// login authenticates and returns the session token.
func (e *testEnv) login(t *testing.T, email, password string, remember bool) string {
	t.Helper()
	result, err := e.auth.Login(context.Background(), &models.LoginRequest{
		Email:    email,
		Password: password,
		Remember: remember,
	})
	if err != nil {
		t.Fatalf("Failed to log in %s: %v", email, err)
	}
	if !result.Success {
		t.Fatalf("Login of %s rejected: %s", email, result.Message)
	}
	return result.Token
}

// uploadNote uploads a small text note and fails the test on any rejection.
func (e *testEnv) uploadNote(t *testing.T, userID, title string, kind models.NoteKind) *models.NoteMetadata {
	t.Helper()
	result, err := e.notes.Upload(context.Background(), userID, &models.UploadNoteRequest{
		Title:    title,
		Subject:  "Mathematics",
		Semester: 3,
		Kind:     kind,
	}, textFile(title+".txt", "notes on "+title))
	if err != nil {
		t.Fatalf("Failed to upload %q: %v", title, err)
	}
	if !result.Success {
		t.Fatalf("Upload of %q rejected: %s", title, result.Message)
	}
	return result.Note
}
