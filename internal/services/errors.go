package services

import "errors"

// Sentinel errors shared across services. Handlers map these to HTTP
// statuses; anything else is an internal error.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrSessionExpired = errors.New("session is invalid or expired")
	ErrNoteNotFound   = errors.New("note not found")
	ErrNotOwner       = errors.New("note belongs to another user")
)
