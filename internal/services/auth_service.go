package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/notesvault/notes-service/internal/cache"
	"github.com/notesvault/notes-service/internal/events"
	"github.com/notesvault/notes-service/internal/models"
	"github.com/notesvault/notes-service/internal/repositories"
	"github.com/notesvault/notes-service/internal/security"
	"github.com/notesvault/notes-service/internal/storage"
	"github.com/notesvault/notes-service/internal/validator"
)

const temporaryPasswordLength = 12

// ===== SERVICE INTERFACE =====

// AuthService owns the user collection and the current sessions: register,
// login, logout, profile update, password change, account deletion and
// password reset.
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResult, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error)

	// GetCurrentUser resolves a session token to its user, refreshing the
	// session's activity timestamp and TTL. Expired or orphaned sessions
	// are discarded and reported as ErrSessionExpired.
	GetCurrentUser(ctx context.Context, token string) (*models.User, *models.Session, error)
	Logout(ctx context.Context, token string) error

	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.Result, error)

	// ChangePassword invalidates every session of the user except the one
	// identified by currentToken, which is re-issued.
	ChangePassword(ctx context.Context, userID, currentToken string, req *models.ChangePasswordRequest) (*models.Result, error)
	DeleteAccount(ctx context.Context, userID string, req *models.DeleteAccountRequest) (*models.Result, error)
	ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) (*models.ResetPasswordResult, error)
}

// AuthConfig carries the session lifetimes.
type AuthConfig struct {
	IdleTimeout     time.Duration
	RememberTimeout time.Duration
}

// ===== SERVICE IMPLEMENTATION =====

type authService struct {
	repo      repositories.Repository
	store     *storage.LocalStore
	publisher events.EventPublisher
	cache     *cache.CacheManager
	validator *validator.Validator
	logger    *slog.Logger
	config    AuthConfig
}

func NewAuthService(
	repo repositories.Repository,
	store *storage.LocalStore,
	publisher events.EventPublisher,
	cacheManager *cache.CacheManager,
	v *validator.Validator,
	logger *slog.Logger,
	config AuthConfig,
) AuthService {
	return &authService{
		repo:      repo,
		store:     store,
		publisher: publisher,
		cache:     cacheManager,
		validator: v,
		logger:    logger,
		config:    config,
	}
}

func failure(message string) models.Result {
	return models.Result{Success: false, Message: message}
}

func emailExistsFailure() models.Result {
	return models.Result{
		Success: false,
		Code:    models.CodeEmailExists,
		Message: "an account with this email already exists",
	}
}

func success(message string) models.Result {
	return models.Result{Success: true, Message: message}
}

func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResult, error) {
	if verrs := s.validator.Validate(req); verrs != nil {
		return &models.RegisterResult{Result: failure(verrs.Message())}, nil
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.User().ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if exists {
		return &models.RegisterResult{Result: emailExistsFailure()}, nil
	}

	salt, err := security.GenerateSalt()
	if err != nil {
		return nil, err
	}
	hash, err := security.HashPassword(req.Password, salt)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		FullName:     strings.TrimSpace(req.FullName),
		Email:        email,
		PasswordHash: hash,
		Salt:         salt,
	}

	if err := s.repo.User().Create(ctx, user); err != nil {
		// Concurrent registration with the same email loses the race on
		// the unique index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &models.RegisterResult{Result: emailExistsFailure()}, nil
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	s.publishEvent(ctx, events.EventUserRegistered, map[string]string{
		"user_id": user.ID,
		"email":   user.Email,
	})

	return &models.RegisterResult{
		Result: success("registration successful"),
		User:   user,
	}, nil
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error) {
	if verrs := s.validator.Validate(req); verrs != nil {
		return &models.LoginResult{Result: failure(verrs.Message())}, nil
	}

	user, err := s.repo.User().GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return &models.LoginResult{Result: failure("invalid email or password")}, nil
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if !security.VerifyPassword(req.Password, user.Salt, user.PasswordHash) {
		return &models.LoginResult{Result: failure("invalid email or password")}, nil
	}

	now := time.Now().UTC()
	session := &models.Session{
		Token:        uuid.New().String(),
		UserID:       user.ID,
		Email:        user.Email,
		FullName:     user.FullName,
		LoggedInAt:   now,
		Remember:     req.Remember,
		LastActivity: now,
	}

	ttl := s.sessionTTL(req.Remember)
	if err := s.repo.Session().Save(ctx, session, ttl); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID, "remember", req.Remember)

	return &models.LoginResult{
		Result:     success("login successful"),
		Token:      session.Token,
		User:       user,
		ExpiresAt:  now.Add(ttl),
		RedirectTo: sanitizeRedirect(req.Redirect),
	}, nil
}

func (s *authService) GetCurrentUser(ctx context.Context, token string) (*models.User, *models.Session, error) {
	if token == "" {
		return nil, nil, ErrSessionExpired
	}

	session, err := s.repo.Session().Get(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, ErrSessionExpired
		}
		return nil, nil, fmt.Errorf("loading session: %w", err)
	}

	now := time.Now().UTC()
	if session.IdleExpired(s.config.IdleTimeout, now) {
		s.discardSession(ctx, token)
		return nil, nil, ErrSessionExpired
	}

	user, err := s.repo.User().GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Session referencing a deleted user is invalid.
			s.discardSession(ctx, token)
			return nil, nil, ErrSessionExpired
		}
		return nil, nil, fmt.Errorf("loading session user: %w", err)
	}

	session.LastActivity = now
	if err := s.repo.Session().Save(ctx, session, s.sessionTTL(session.Remember)); err != nil {
		// The refresh is best effort; the session stays usable until its
		// previous TTL runs out.
		s.logger.Warn("failed to refresh session", "error", err)
	}

	return user, session, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.repo.Session().Delete(ctx, token)
}

func (s *authService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.Result, error) {
	if verrs := s.validator.Validate(req); verrs != nil {
		r := failure(verrs.Message())
		return &r, nil
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.College != nil {
		user.College = req.College
	}
	if req.Branch != nil {
		user.Branch = req.Branch
	}
	if req.Year != nil {
		user.Year = req.Year
	}

	if err := s.repo.User().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}

	cache.InvalidateAccount(ctx, s.cache, userID)

	r := success("profile updated")
	return &r, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID, currentToken string, req *models.ChangePasswordRequest) (*models.Result, error) {
	if verrs := s.validator.Validate(req); verrs != nil {
		r := failure(verrs.Message())
		return &r, nil
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	if !security.VerifyPassword(req.OldPassword, user.Salt, user.PasswordHash) {
		r := failure("current password is incorrect")
		return &r, nil
	}

	if err := s.rehashPassword(ctx, user, req.NewPassword); err != nil {
		return nil, err
	}

	// Keep the caller's session alive; everything else is revoked so the
	// old password cannot ride on stale sessions.
	var current *models.Session
	if currentToken != "" {
		if sess, err := s.repo.Session().Get(ctx, currentToken); err == nil {
			current = sess
		}
	}
	if err := s.repo.Session().DeleteByUser(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke sessions after password change", "error", err, "user_id", userID)
	}
	if current != nil {
		current.LastActivity = time.Now().UTC()
		if err := s.repo.Session().Save(ctx, current, s.sessionTTL(current.Remember)); err != nil {
			s.logger.Warn("failed to re-issue current session", "error", err)
		}
	}

	s.logger.Info("password changed", "user_id", userID)

	r := success("password changed")
	return &r, nil
}

func (s *authService) DeleteAccount(ctx context.Context, userID string, req *models.DeleteAccountRequest) (*models.Result, error) {
	if verrs := s.validator.Validate(req); verrs != nil {
		r := failure(verrs.Message())
		return &r, nil
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	if !security.VerifyPassword(req.Password, user.Salt, user.PasswordHash) {
		r := failure("password is incorrect")
		return &r, nil
	}

	// Collect stored file paths before the rows go away.
	notes, err := s.repo.Note().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Note().DeleteByUser(ctx, userID); err != nil {
			return err
		}
		return tx.User().Delete(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("deleting account: %w", err)
	}

	if err := s.repo.Session().DeleteByUser(ctx, userID); err != nil {
		s.logger.Warn("failed to clear sessions for deleted account", "error", err, "user_id", userID)
	}

	for _, note := range notes {
		if err := s.store.Remove(note.StoredPath); err != nil {
			s.logger.Warn("failed to remove note file", "error", err, "note_id", note.ID)
		}
	}

	cache.InvalidateAccount(ctx, s.cache, userID)

	s.logger.Info("account deleted", "user_id", userID)
	s.publishEvent(ctx, events.EventUserDeleted, map[string]string{"user_id": userID})

	r := success("account deleted")
	return &r, nil
}

func (s *authService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) (*models.ResetPasswordResult, error) {
	if verrs := s.validator.Validate(req); verrs != nil {
		return &models.ResetPasswordResult{Result: failure(verrs.Message())}, nil
	}

	user, err := s.repo.User().GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return &models.ResetPasswordResult{Result: failure("no account found with this email")}, nil
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	temporary, err := security.GenerateTemporaryPassword(temporaryPasswordLength)
	if err != nil {
		return nil, err
	}
	if err := s.rehashPassword(ctx, user, temporary); err != nil {
		return nil, err
	}

	if err := s.repo.Session().DeleteByUser(ctx, user.ID); err != nil {
		s.logger.Warn("failed to revoke sessions after password reset", "error", err, "user_id", user.ID)
	}

	s.logger.Info("password reset", "user_id", user.ID)

	return &models.ResetPasswordResult{
		Result:            success("temporary password generated; use it to log in and change your password"),
		TemporaryPassword: temporary,
	}, nil
}

// ===== HELPERS =====

func (s *authService) rehashPassword(ctx context.Context, user *models.User, password string) error {
	salt, err := security.GenerateSalt()
	if err != nil {
		return err
	}
	hash, err := security.HashPassword(password, salt)
	if err != nil {
		return err
	}
	user.Salt = salt
	user.PasswordHash = hash
	if err := s.repo.User().Update(ctx, user); err != nil {
		return fmt.Errorf("updating credentials: %w", err)
	}
	return nil
}

func (s *authService) sessionTTL(remember bool) time.Duration {
	if remember {
		return s.config.RememberTimeout
	}
	return s.config.IdleTimeout
}

func (s *authService) discardSession(ctx context.Context, token string) {
	if err := s.repo.Session().Delete(ctx, token); err != nil {
		s.logger.Warn("failed to discard session", "error", err)
	}
}

func (s *authService) publishEvent(ctx context.Context, eventType string, data interface{}) {
	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		s.logger.Warn("failed to publish event", "error", err, "type", eventType)
	}
}

// sanitizeRedirect only lets same-site relative paths through.
func sanitizeRedirect(redirect string) string {
	if redirect == "" {
		return ""
	}
	if !strings.HasPrefix(redirect, "/") || strings.HasPrefix(redirect, "//") {
		return ""
	}
	return redirect
}
