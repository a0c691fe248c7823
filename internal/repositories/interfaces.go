package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/notesvault/notes-service/internal/models"
)

// ErrNotFound is returned by all repositories when a record does not exist,
// regardless of the backing store.
var ErrNotFound = errors.New("record not found")

// UserRepository owns the user collection. Emails are stored lowercase; the
// unique index on email enforces the uniqueness invariant.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// NoteRepository owns note rows. Positions are assigned per (user, kind) so
// each list keeps its append order independently.
type NoteRepository interface {
	Create(ctx context.Context, note *models.Note) error
	GetByID(ctx context.Context, id string) (*models.Note, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Note, error)
	ListTitles(ctx context.Context, userID string, kind models.NoteKind) ([]string, error)
	NextPosition(ctx context.Context, userID string, kind models.NoteKind) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// SessionRepository stores live sessions keyed by token. Save re-arms the
// TTL, which is how activity refresh works.
type SessionRepository interface {
	Save(ctx context.Context, session *models.Session, ttl time.Duration) error
	Get(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// Repository is the aggregate handed to services.
type Repository interface {
	User() UserRepository
	Note() NoteRepository
	Session() SessionRepository

	// WithTransaction runs fn with a Repository whose user and note
	// repositories share one DB transaction. The session store is not
	// transactional.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}
