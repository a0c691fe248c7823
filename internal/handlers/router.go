package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/notesvault/notes-service/internal/services"
	"github.com/notesvault/notes-service/internal/utils"
)

type HandlerManager struct {
	authHandler    *AuthHandler
	accountHandler *AccountHandler
	noteHandler    *NoteHandler
	authMiddleware *SessionAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	maxUploadSize int64,
) *HandlerManager {
	return &HandlerManager{
		authHandler:    NewAuthHandler(serviceManager.Auth(), logger),
		accountHandler: NewAccountHandler(serviceManager.Account(), serviceManager.Auth(), logger),
		noteHandler:    NewNoteHandler(serviceManager.Note(), maxUploadSize, logger),
		authMiddleware: NewSessionAuthMiddleware(serviceManager.Auth()),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		// Public auth routes
		auth := v1.Group("/auth")
		{
			auth.POST("/register", hm.authHandler.Register)
			auth.POST("/login", hm.authHandler.Login)
			auth.POST("/reset-password", hm.authHandler.ResetPassword)
		}

		// Session-authenticated routes
		authed := v1.Group("")
		authed.Use(hm.authMiddleware.AuthMiddleware())
		{
			authed.POST("/auth/logout", hm.authHandler.Logout)
			authed.GET("/auth/me", hm.authHandler.Me)

			account := authed.Group("/account")
			{
				account.GET("", hm.accountHandler.GetAccount)
				account.PUT("/profile", hm.accountHandler.UpdateProfile)
				account.PUT("/password", hm.accountHandler.ChangePassword)
				account.DELETE("", hm.accountHandler.DeleteAccount)
				account.GET("/export", hm.accountHandler.ExportNotes)
			}

			notes := authed.Group("/notes")
			{
				notes.POST("", hm.noteHandler.Upload)
				notes.GET("", hm.noteHandler.List)
				notes.GET("/:id/file", hm.noteHandler.GetFile)
				notes.DELETE("/:id", hm.noteHandler.Delete)
			}
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "notes-service",
		})
	})
}
