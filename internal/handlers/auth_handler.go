package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/notesvault/notes-service/internal/models"
	"github.com/notesvault/notes-service/internal/services"
	"github.com/notesvault/notes-service/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	auth services.AuthService
}

func NewAuthHandler(auth services.AuthService, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		auth:        auth,
	}
}

// Register creates a new user account
// @Summary Register
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} models.RegisterResult
// @Failure 400 {object} models.RegisterResult "Validation failure"
// @Failure 409 {object} models.RegisterResult "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Registering user")

	result, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		h.LogError(c, err, "Failed to register user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "registration failed, please try again"})
		return
	}

	if !result.Success {
		status := http.StatusBadRequest
		if result.Code == models.CodeEmailExists {
			status = http.StatusConflict
		}
		c.JSON(status, result)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Login authenticates a user and starts a session
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} models.LoginResult
// @Failure 401 {object} models.LoginResult "Bad credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Logging in user")

	result, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		h.LogError(c, err, "Failed to log in user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "login failed, please try again"})
		return
	}

	if !result.Success {
		c.JSON(http.StatusUnauthorized, result)
		return
	}

	maxAge := int(time.Until(result.ExpiresAt).Seconds())
	c.SetCookie(SessionCookieName, result.Token, maxAge, "/", "", false, true)

	c.JSON(http.StatusOK, result)
}

// Logout ends the current session
// @Summary Logout
// @Tags auth
// @Produce json
// @Success 200 {object} models.Result
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString("session_token")

	h.LogRequest(c, "Logging out user")

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		h.LogError(c, err, "Failed to log out user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "logout failed, please try again"})
		return
	}

	c.SetCookie(SessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, models.Result{Success: true, Message: "logged out"})
}

// Me returns the current user and session
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, _ := c.Get("user")
	session, _ := c.Get("session")

	c.JSON(http.StatusOK, gin.H{
		"user":    user,
		"session": session,
	})
}

// ResetPassword issues a temporary password for the account
// @Summary Reset password
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} models.ResetPasswordResult
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Resetting password")

	result, err := h.auth.ResetPassword(c.Request.Context(), &req)
	if err != nil {
		h.LogError(c, err, "Failed to reset password")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "password reset failed, please try again"})
		return
	}

	if !result.Success {
		c.JSON(http.StatusNotFound, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
