package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/notesvault/notes-service/internal/cache"
	"github.com/notesvault/notes-service/internal/events"
	"github.com/notesvault/notes-service/internal/models"
	"github.com/notesvault/notes-service/internal/repositories"
	"github.com/notesvault/notes-service/internal/storage"
	"github.com/notesvault/notes-service/internal/validator"
)

// FileUpload is the transport-agnostic view of an uploaded file.
type FileUpload struct {
	FileName string
	Size     int64
	Content  io.Reader
}

// ===== SERVICE INTERFACE =====

type NoteService interface {
	// Upload stores the file, appends the note to the tail of the user's
	// list of the requested kind and returns the ephemeral metadata record.
	Upload(ctx context.Context, userID string, req *models.UploadNoteRequest, file *FileUpload) (*models.UploadResult, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Note, error)

	// GetFile opens the stored file for download or inline preview.
	// The caller closes the file.
	GetFile(ctx context.Context, noteID string) (*models.Note, *os.File, error)
	Delete(ctx context.Context, noteID, userID string) (*models.Result, error)
}

// ===== SERVICE IMPLEMENTATION =====

type noteService struct {
	repo      repositories.Repository
	store     *storage.LocalStore
	publisher events.EventPublisher
	cache     *cache.CacheManager
	validator *validator.Validator
	logger    *slog.Logger
}

func NewNoteService(
	repo repositories.Repository,
	store *storage.LocalStore,
	publisher events.EventPublisher,
	cacheManager *cache.CacheManager,
	v *validator.Validator,
	logger *slog.Logger,
) NoteService {
	return &noteService{
		repo:      repo,
		store:     store,
		publisher: publisher,
		cache:     cacheManager,
		validator: v,
		logger:    logger,
	}
}

func (s *noteService) Upload(ctx context.Context, userID string, req *models.UploadNoteRequest, file *FileUpload) (*models.UploadResult, error) {
	if verrs := s.validator.Validate(req); verrs != nil {
		return &models.UploadResult{Result: failure(verrs.Message())}, nil
	}
	if file == nil || file.FileName == "" {
		return &models.UploadResult{Result: failure("a file is required")}, nil
	}

	if _, err := s.repo.User().GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	// Sniff the content type from the leading bytes so image uploads get a
	// preview without trusting the file extension.
	header := make([]byte, 512)
	n, err := io.ReadFull(file.Content, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	contentType := http.DetectContentType(header[:n])
	isImage := strings.HasPrefix(contentType, "image/")
	content := io.MultiReader(bytes.NewReader(header[:n]), file.Content)

	path, size, err := s.store.Save(file.FileName, content)
	if err != nil {
		return nil, fmt.Errorf("storing file: %w", err)
	}

	note := &models.Note{
		ID:         uuid.New().String(),
		UserID:     userID,
		Title:      strings.TrimSpace(req.Title),
		Subject:    strings.TrimSpace(req.Subject),
		Semester:   req.Semester,
		Kind:       req.Kind,
		FileName:   file.FileName,
		FileSize:   size,
		StoredPath: path,
		UploadedAt: time.Now().UTC(),
	}

	// Position assignment and insert share a transaction so concurrent
	// uploads cannot interleave within one list.
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		pos, err := tx.Note().NextPosition(ctx, userID, note.Kind)
		if err != nil {
			return err
		}
		note.Position = pos
		return tx.Note().Create(ctx, note)
	})
	if err != nil {
		if rmErr := s.store.Remove(path); rmErr != nil {
			s.logger.Warn("failed to clean up orphaned upload", "error", rmErr, "path", path)
		}
		return nil, fmt.Errorf("creating note: %w", err)
	}

	cache.InvalidateAccount(ctx, s.cache, userID)

	s.logger.Info("note uploaded",
		"note_id", note.ID,
		"user_id", userID,
		"kind", note.Kind,
		"size", size)

	if err := s.publisher.Publish(ctx, events.EventNoteUploaded, map[string]interface{}{
		"note_id": note.ID,
		"user_id": userID,
		"title":   note.Title,
		"kind":    string(note.Kind),
	}); err != nil {
		s.logger.Warn("failed to publish event", "error", err, "type", events.EventNoteUploaded)
	}

	fileURL := fmt.Sprintf("/api/v1/notes/%s/file", note.ID)
	result := &models.UploadResult{
		Result: success("note uploaded successfully"),
		Note: &models.NoteMetadata{
			ID:         note.ID,
			Title:      note.Title,
			Subject:    note.Subject,
			Semester:   note.Semester,
			Kind:       note.Kind,
			FileName:   note.FileName,
			FileSize:   note.FileSize,
			UploaderID: userID,
			UploadedAt: note.UploadedAt,
			FileURL:    fileURL,
		},
		IsImage: isImage,
	}
	if isImage {
		result.PreviewURL = fileURL
	}
	return result, nil
}

func (s *noteService) ListByUser(ctx context.Context, userID string) ([]*models.Note, error) {
	return s.repo.Note().ListByUser(ctx, userID)
}

func (s *noteService) GetFile(ctx context.Context, noteID string) (*models.Note, *os.File, error) {
	note, err := s.repo.Note().GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, ErrNoteNotFound
		}
		return nil, nil, fmt.Errorf("loading note: %w", err)
	}

	f, err := s.store.Open(note.StoredPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening note file: %w", err)
	}
	return note, f, nil
}

func (s *noteService) Delete(ctx context.Context, noteID, userID string) (*models.Result, error) {
	note, err := s.repo.Note().GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("loading note: %w", err)
	}
	if note.UserID != userID {
		return nil, ErrNotOwner
	}

	if err := s.repo.Note().Delete(ctx, noteID); err != nil {
		return nil, fmt.Errorf("deleting note: %w", err)
	}
	if err := s.store.Remove(note.StoredPath); err != nil {
		s.logger.Warn("failed to remove note file", "error", err, "note_id", noteID)
	}

	cache.InvalidateAccount(ctx, s.cache, userID)

	if err := s.publisher.Publish(ctx, events.EventNoteDeleted, map[string]string{
		"note_id": noteID,
		"user_id": userID,
	}); err != nil {
		s.logger.Warn("failed to publish event", "error", err, "type", events.EventNoteDeleted)
	}

	r := success("note deleted")
	return &r, nil
}
