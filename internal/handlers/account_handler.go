package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/notesvault/notes-service/internal/models"
	"github.com/notesvault/notes-service/internal/services"
	"github.com/notesvault/notes-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AccountHandler struct {
	BaseHandler
	account services.AccountService
	auth    services.AuthService
}

func NewAccountHandler(account services.AccountService, auth services.AuthService, logger utils.Logger) *AccountHandler {
	return &AccountHandler{
		BaseHandler: NewBaseHandler(logger),
		account:     account,
		auth:        auth,
	}
}

// GetAccount returns the account page data: profile plus both notes lists
// @Summary Account overview
// @Tags account
// @Produce json
// @Success 200 {object} models.AccountResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /account [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "user not authenticated"})
		return
	}

	h.LogRequest(c, "Getting account", "user_id", userID)

	response, err := h.account.GetAccount(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "account not found"})
			return
		}
		h.LogError(c, err, "Failed to get account")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to load account"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// UpdateProfile updates profile fields
// @Summary Update profile
// @Tags account
// @Accept json
// @Produce json
// @Success 200 {object} models.Result
// @Failure 400 {object} models.Result "Validation failure"
// @Router /account/profile [put]
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "user not authenticated"})
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating profile", "user_id", userID)

	result, err := h.auth.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		h.LogError(c, err, "Failed to update profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to update profile"})
		return
	}

	if !result.Success {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ChangePassword changes the account password
// @Summary Change password
// @Tags account
// @Accept json
// @Produce json
// @Success 200 {object} models.Result
// @Failure 400 {object} models.Result "Validation failure or wrong password"
// @Router /account/password [put]
func (h *AccountHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "user not authenticated"})
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Changing password", "user_id", userID)

	result, err := h.auth.ChangePassword(c.Request.Context(), userID, c.GetString("session_token"), &req)
	if err != nil {
		h.LogError(c, err, "Failed to change password")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to change password"})
		return
	}

	if !result.Success {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteAccount deletes the account after a password check
// @Summary Delete account
// @Tags account
// @Accept json
// @Produce json
// @Success 200 {object} models.Result
// @Failure 400 {object} models.Result "Wrong password"
// @Router /account [delete]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "user not authenticated"})
		return
	}

	var req models.DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Deleting account", "user_id", userID)

	result, err := h.auth.DeleteAccount(c.Request.Context(), userID, &req)
	if err != nil {
		h.LogError(c, err, "Failed to delete account")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to delete account"})
		return
	}

	if !result.Success {
		c.JSON(http.StatusBadRequest, result)
		return
	}

	c.SetCookie(SessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, result)
}

// ExportNotes downloads the user's note metadata as an xlsx workbook
// @Summary Export notes
// @Tags account
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Router /account/export [get]
func (h *AccountHandler) ExportNotes(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "user not authenticated"})
		return
	}

	h.LogRequest(c, "Exporting notes", "user_id", userID)

	data, filename, err := h.account.ExportNotes(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "account not found"})
			return
		}
		h.LogError(c, err, "Failed to export notes")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to export notes"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
