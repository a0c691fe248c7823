package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/notesvault/notes-service/internal/models"
	"github.com/notesvault/notes-service/internal/services"
	"github.com/notesvault/notes-service/internal/utils"
)

type NoteHandler struct {
	BaseHandler
	notes         services.NoteService
	maxUploadSize int64
}

func NewNoteHandler(notes services.NoteService, maxUploadSize int64, logger utils.Logger) *NoteHandler {
	return &NoteHandler{
		BaseHandler:   NewBaseHandler(logger),
		notes:         notes,
		maxUploadSize: maxUploadSize,
	}
}

// Upload accepts a multipart note upload
// @Summary Upload note
// @Tags notes
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Note title"
// @Param subject formData string true "Subject"
// @Param semester formData int true "Semester"
// @Param kind formData string true "lecture or pyq"
// @Param file formData file true "Note file"
// @Success 201 {object} models.UploadResult
// @Failure 400 {object} models.UploadResult "Missing fields"
// @Failure 413 {object} ErrorResponse "File too large"
// @Router /notes [post]
func (h *NoteHandler) Upload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "user not authenticated"})
		return
	}

	var req models.UploadNoteRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "invalid upload form",
			Details: err.Error(),
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.UploadResult{
			Result: models.Result{Success: false, Message: "a file is required"},
		})
		return
	}
	if fileHeader.Size > h.maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Message: fmt.Sprintf("file exceeds the %d MB upload limit", h.maxUploadSize>>20),
		})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		h.LogError(c, err, "Failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to read upload"})
		return
	}
	defer src.Close()

	h.LogRequest(c, "Uploading note", "user_id", userID, "file", fileHeader.Filename)

	result, err := h.notes.Upload(c.Request.Context(), userID, &req, &services.FileUpload{
		FileName: fileHeader.Filename,
		Size:     fileHeader.Size,
		Content:  src,
	})
	if err != nil {
		h.LogError(c, err, "Failed to upload note")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "upload failed, please try again"})
		return
	}

	if !result.Success {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// List returns all notes of the current user
// @Summary List notes
// @Tags notes
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /notes [get]
func (h *NoteHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "user not authenticated"})
		return
	}

	notes, err := h.notes.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.LogError(c, err, "Failed to list notes")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to list notes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notes": notes,
		"total": len(notes),
	})
}

// GetFile serves a stored note file, inline for previews
// @Summary Download note file
// @Tags notes
// @Produce octet-stream
// @Param id path string true "Note ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /notes/{id}/file [get]
func (h *NoteHandler) GetFile(c *gin.Context) {
	noteID := c.Param("id")

	note, f, err := h.notes.GetFile(c.Request.Context(), noteID)
	if err != nil {
		if errors.Is(err, services.ErrNoteNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "note not found"})
			return
		}
		h.LogError(c, err, "Failed to open note file")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to read note file"})
		return
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(note.FileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.DataFromReader(http.StatusOK, note.FileSize, contentType, f, map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", note.FileName),
	})
}

// Delete removes a note owned by the current user
// @Summary Delete note
// @Tags notes
// @Produce json
// @Param id path string true "Note ID"
// @Success 200 {object} models.Result
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /notes/{id} [delete]
func (h *NoteHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "user not authenticated"})
		return
	}
	noteID := c.Param("id")

	h.LogRequest(c, "Deleting note", "user_id", userID, "note_id", noteID)

	result, err := h.notes.Delete(c.Request.Context(), noteID, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoteNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "note not found"})
		case errors.Is(err, services.ErrNotOwner):
			c.JSON(http.StatusForbidden, ErrorResponse{Message: "you can only delete your own notes"})
		default:
			h.LogError(c, err, "Failed to delete note")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to delete note"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
