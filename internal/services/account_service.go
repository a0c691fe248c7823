package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/notesvault/notes-service/internal/cache"
	"github.com/notesvault/notes-service/internal/models"
	"github.com/notesvault/notes-service/internal/repositories"
)

// ===== SERVICE INTERFACE =====

// AccountService assembles the account page data and the notes export.
type AccountService interface {
	GetAccount(ctx context.Context, userID string) (*models.AccountResponse, error)

	// ExportNotes renders the user's note metadata as an xlsx workbook and
	// returns the file content plus a suggested file name.
	ExportNotes(ctx context.Context, userID string) ([]byte, string, error)
}

// ===== SERVICE IMPLEMENTATION =====

type accountService struct {
	repo   repositories.Repository
	cache  *cache.CacheManager
	logger *slog.Logger
}

func NewAccountService(repo repositories.Repository, cacheManager *cache.CacheManager, logger *slog.Logger) AccountService {
	return &accountService{
		repo:   repo,
		cache:  cacheManager,
		logger: logger,
	}
}

func (s *accountService) GetAccount(ctx context.Context, userID string) (*models.AccountResponse, error) {
	var cached models.AccountResponse
	if err := s.cache.Account.Get(ctx, userID, &cached); err == nil {
		return &cached, nil
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	lecture, err := s.repo.Note().ListTitles(ctx, userID, models.NoteKindLecture)
	if err != nil {
		return nil, fmt.Errorf("listing lecture notes: %w", err)
	}
	pyq, err := s.repo.Note().ListTitles(ctx, userID, models.NoteKindPYQ)
	if err != nil {
		return nil, fmt.Errorf("listing pyq notes: %w", err)
	}

	// Empty lists render as [] rather than null.
	if lecture == nil {
		lecture = []string{}
	}
	if pyq == nil {
		pyq = []string{}
	}

	response := &models.AccountResponse{
		User:         user,
		LectureNotes: lecture,
		PYQNotes:     pyq,
		NoteCount:    len(lecture) + len(pyq),
	}

	if err := s.cache.Account.Set(ctx, userID, response, cache.AccountTTL); err != nil {
		s.logger.Warn("failed to cache account view", "error", err, "user_id", userID)
	}

	return response, nil
}

var exportHeaders = []string{"Title", "Subject", "Semester", "Kind", "File Name", "File Size", "Uploaded At"}

func (s *accountService) ExportNotes(ctx context.Context, userID string) ([]byte, string, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", fmt.Errorf("loading user: %w", err)
	}

	notes, err := s.repo.Note().ListByUser(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("listing notes: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Notes"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", fmt.Errorf("renaming sheet: %w", err)
	}

	for col, h := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, "", fmt.Errorf("writing header: %w", err)
		}
	}

	for i, note := range notes {
		row := i + 2
		values := []interface{}{
			note.Title,
			note.Subject,
			note.Semester,
			string(note.Kind),
			note.FileName,
			note.FileSize,
			note.UploadedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, "", err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, "", fmt.Errorf("writing row %d: %w", row, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("writing workbook: %w", err)
	}

	s.logger.Info("notes exported", "user_id", userID, "count", len(notes))

	filename := fmt.Sprintf("notesvault-%s.xlsx", shortID(user.ID))
	return buf.Bytes(), filename, nil
}

// shortID abbreviates a uuid for file names; anything shorter passes through.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
