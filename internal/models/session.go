package models

import "time"

// Session identifies the currently authenticated user. Sessions live in the
// session store keyed by token; the store's TTL plus the LastActivity check
// together enforce expiry.
type Session struct {
	Token        string    `json:"token"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	LoggedInAt   time.Time `json:"logged_in_at"`
	Remember     bool      `json:"remember"`
	LastActivity time.Time `json:"last_activity"`
}

// IdleExpired reports whether the session has been idle longer than the
// timeout. Remembered sessions never idle out; they rely on the store TTL.
func (s *Session) IdleExpired(timeout time.Duration, now time.Time) bool {
	if s.Remember {
		return false
	}
	return now.Sub(s.LastActivity) > timeout
}
