package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/notesvault/notes-service/internal/models"
	"github.com/notesvault/notes-service/internal/repositories"
)

type noteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) repositories.NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(ctx context.Context, note *models.Note) error {
	if err := r.db.WithContext(ctx).Create(note).Error; err != nil {
		return handleDBError(err, "create note")
	}
	return nil
}

func (r *noteRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	var note models.Note
	if err := r.db.WithContext(ctx).First(&note, "id = ?", id).Error; err != nil {
		return nil, handleDBError(err, "get note by id")
	}
	return &note, nil
}

func (r *noteRepository) ListByUser(ctx context.Context, userID string) ([]*models.Note, error) {
	var notes []*models.Note
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("kind ASC, position ASC").
		Find(&notes).Error
	if err != nil {
		return nil, handleDBError(err, "list notes by user")
	}
	return notes, nil
}

func (r *noteRepository) ListTitles(ctx context.Context, userID string, kind models.NoteKind) ([]string, error) {
	var titles []string
	err := r.db.WithContext(ctx).
		Model(&models.Note{}).
		Where("user_id = ? AND kind = ?", userID, kind).
		Order("position ASC").
		Pluck("title", &titles).Error
	if err != nil {
		return nil, handleDBError(err, "list note titles")
	}
	return titles, nil
}

// NextPosition returns the tail position of the (user, kind) list. Callers
// assign it inside the same transaction as the insert.
func (r *noteRepository) NextPosition(ctx context.Context, userID string, kind models.NoteKind) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).
		Model(&models.Note{}).
		Where("user_id = ? AND kind = ?", userID, kind).
		Select("MAX(position)").
		Scan(&max).Error
	if err != nil {
		return 0, handleDBError(err, "next note position")
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

func (r *noteRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Note{}, "id = ?", id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete note")
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *noteRepository) DeleteByUser(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Delete(&models.Note{}, "user_id = ?", userID).Error; err != nil {
		return handleDBError(err, "delete notes by user")
	}
	return nil
}
