package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/notesvault/notes-service/internal/events"
	"github.com/notesvault/notes-service/internal/models"
	"github.com/notesvault/notes-service/internal/repositories"
)

// blindExistsRepo simulates the registration race: the existence pre-check
// reports the email as free, leaving the unique index as the last defense.
type blindExistsRepo struct {
	repositories.Repository
}

func (r blindExistsRepo) User() repositories.UserRepository {
	return blindExistsUserRepo{r.Repository.User()}
}

type blindExistsUserRepo struct {
	repositories.UserRepository
}

func (blindExistsUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func TestAuthService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("creates account", func(t *testing.T) {
		user := env.register(t, "Asha Rao", "asha@example.com", "sunrise42")
		if user.ID == "" {
			t.Fatal("Expected a user ID")
		}
		if user.Email != "asha@example.com" {
			t.Errorf("Expected normalized email, got %s", user.Email)
		}
		if user.PasswordHash == "sunrise42" || user.PasswordHash == "" {
			t.Error("Password must be stored as a salted hash")
		}

		published := env.publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventUserRegistered {
			t.Errorf("Expected one %s event, got %+v", events.EventUserRegistered, published)
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		result, err := env.auth.Register(ctx, &models.RegisterRequest{
			FullName: "Asha Again",
			Email:    "asha@example.com",
			Password: "different42",
		})
		if err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
		if result.Success {
			t.Fatal("Expected duplicate registration to fail")
		}
		if !strings.Contains(result.Message, "already exists") {
			t.Errorf("Expected 'already exists' message, got %q", result.Message)
		}
		if result.Code != models.CodeEmailExists {
			t.Errorf("Expected code %q, got %q", models.CodeEmailExists, result.Code)
		}
	})

	t.Run("duplicate email is case-insensitive", func(t *testing.T) {
		result, err := env.auth.Register(ctx, &models.RegisterRequest{
			FullName: "Asha Upper",
			Email:    "ASHA@Example.COM",
			Password: "different42",
		})
		if err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
		if result.Success {
			t.Fatal("Expected case-variant duplicate to fail")
		}
	})

	t.Run("losing the unique-index race yields the same rejection", func(t *testing.T) {
		// A concurrent registration that got past the existence check must
		// still be rejected by the unique index, with the same result.
		racing := NewAuthService(blindExistsRepo{env.repo}, env.store, env.publisher, env.cache,
			env.validator, env.logger, env.authConfig)

		result, err := racing.Register(ctx, &models.RegisterRequest{
			FullName: "Asha Racer",
			Email:    "asha@example.com",
			Password: "different42",
		})
		if err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
		if result.Success {
			t.Fatal("Expected racing duplicate to fail")
		}
		if result.Code != models.CodeEmailExists {
			t.Errorf("Expected code %q, got %q", models.CodeEmailExists, result.Code)
		}
	})

	t.Run("weak password rejected", func(t *testing.T) {
		result, err := env.auth.Register(ctx, &models.RegisterRequest{
			FullName: "Short Pass",
			Email:    "short@example.com",
			Password: "abc1",
		})
		if err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
		if result.Success {
			t.Fatal("Expected weak password to be rejected")
		}
	})
}

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Ben Kim", "ben@example.com", "autumn99x")

	t.Run("wrong password rejected without session", func(t *testing.T) {
		result, err := env.auth.Login(ctx, &models.LoginRequest{
			Email:    "ben@example.com",
			Password: "not-the-password1",
		})
		if err != nil {
			t.Fatalf("Login returned error: %v", err)
		}
		if result.Success {
			t.Fatal("Expected login with wrong password to fail")
		}
		if result.Token != "" {
			t.Error("Failed login must not issue a token")
		}
	})

	t.Run("unknown email rejected with same message", func(t *testing.T) {
		result, err := env.auth.Login(ctx, &models.LoginRequest{
			Email:    "nobody@example.com",
			Password: "autumn99x",
		})
		if err != nil {
			t.Fatalf("Login returned error: %v", err)
		}
		if result.Success {
			t.Fatal("Expected login for unknown email to fail")
		}
		if result.Message != "invalid email or password" {
			t.Errorf("Unknown email must not be distinguishable, got %q", result.Message)
		}
	})

	t.Run("correct password creates session", func(t *testing.T) {
		token := env.login(t, "ben@example.com", "autumn99x", false)

		user, session, err := env.auth.GetCurrentUser(ctx, token)
		if err != nil {
			t.Fatalf("Failed to resolve session: %v", err)
		}
		if user.Email != "ben@example.com" {
			t.Errorf("Session resolved to wrong user: %s", user.Email)
		}
		if session.Remember {
			t.Error("Expected a non-remembered session")
		}
	})

	t.Run("redirect is sanitized", func(t *testing.T) {
		result, err := env.auth.Login(ctx, &models.LoginRequest{
			Email:    "ben@example.com",
			Password: "autumn99x",
			Redirect: "//evil.example.com/phish",
		})
		if err != nil {
			t.Fatalf("Login returned error: %v", err)
		}
		if result.RedirectTo != "" {
			t.Errorf("Expected scheme-relative redirect to be dropped, got %q", result.RedirectTo)
		}

		result, err = env.auth.Login(ctx, &models.LoginRequest{
			Email:    "ben@example.com",
			Password: "autumn99x",
			Redirect: "/account",
		})
		if err != nil {
			t.Fatalf("Login returned error: %v", err)
		}
		if result.RedirectTo != "/account" {
			t.Errorf("Expected relative redirect to pass through, got %q", result.RedirectTo)
		}
	})
}

func TestAuthService_SessionIdleExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Cara Diaz", "cara@example.com", "winter77z")

	t.Run("idle session without remember is invalidated", func(t *testing.T) {
		token := env.login(t, "cara@example.com", "winter77z", false)

		// Age the session past the idle timeout.
		session, err := env.repo.Session().Get(ctx, token)
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}
		session.LastActivity = time.Now().UTC().Add(-31 * time.Minute)
		if err := env.repo.Session().Save(ctx, session, time.Hour); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}

		if _, _, err := env.auth.GetCurrentUser(ctx, token); !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("Expected ErrSessionExpired, got %v", err)
		}

		// The expired session is discarded, not just rejected.
		if _, err := env.repo.Session().Get(ctx, token); !errors.Is(err, repositories.ErrNotFound) {
			t.Errorf("Expected session to be discarded, got %v", err)
		}
	})

	t.Run("remembered session survives idleness", func(t *testing.T) {
		token := env.login(t, "cara@example.com", "winter77z", true)

		session, err := env.repo.Session().Get(ctx, token)
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}
		session.LastActivity = time.Now().UTC().Add(-48 * time.Hour)
		if err := env.repo.Session().Save(ctx, session, time.Hour); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}

		if _, _, err := env.auth.GetCurrentUser(ctx, token); err != nil {
			t.Fatalf("Expected remembered session to stay valid, got %v", err)
		}
	})

	t.Run("activity refresh keeps session alive", func(t *testing.T) {
		token := env.login(t, "cara@example.com", "winter77z", false)

		before, err := env.repo.Session().Get(ctx, token)
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}

		time.Sleep(5 * time.Millisecond)
		if _, _, err := env.auth.GetCurrentUser(ctx, token); err != nil {
			t.Fatalf("Failed to resolve session: %v", err)
		}

		after, err := env.repo.Session().Get(ctx, token)
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}
		if !after.LastActivity.After(before.LastActivity) {
			t.Error("Expected LastActivity to advance on access")
		}
	})
}

func TestAuthService_Logout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Dev Nair", "dev@example.com", "spring33q")
	token := env.login(t, "dev@example.com", "spring33q", false)

	if err := env.auth.Logout(ctx, token); err != nil {
		t.Fatalf("Failed to log out: %v", err)
	}
	if _, _, err := env.auth.GetCurrentUser(ctx, token); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Expected session to be gone after logout, got %v", err)
	}

	// Logging out an empty or unknown token is a no-op.
	if err := env.auth.Logout(ctx, ""); err != nil {
		t.Errorf("Expected empty-token logout to succeed, got %v", err)
	}
}

func TestAuthService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "Esha Patel", "esha@example.com", "monsoon55m")

	college := "City Engineering College"
	year := 3
	result, err := env.auth.UpdateProfile(ctx, user.ID, &models.UpdateProfileRequest{
		College: &college,
		Year:    &year,
	})
	if err != nil {
		t.Fatalf("Failed to update profile: %v", err)
	}
	if !result.Success {
		t.Fatalf("Profile update rejected: %s", result.Message)
	}

	updated, err := env.repo.User().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to reload user: %v", err)
	}
	if updated.College == nil || *updated.College != college {
		t.Errorf("College not persisted: %+v", updated.College)
	}
	if updated.Year == nil || *updated.Year != 3 {
		t.Errorf("Year not persisted: %+v", updated.Year)
	}
	if updated.FullName != "Esha Patel" {
		t.Errorf("Unset fields must stay untouched, got %s", updated.FullName)
	}

	t.Run("invalid year rejected", func(t *testing.T) {
		bad := 9
		result, err := env.auth.UpdateProfile(ctx, user.ID, &models.UpdateProfileRequest{Year: &bad})
		if err != nil {
			t.Fatalf("UpdateProfile returned error: %v", err)
		}
		if result.Success {
			t.Error("Expected out-of-range year to be rejected")
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		name := "Ghost"
		_, err := env.auth.UpdateProfile(ctx, "missing-id", &models.UpdateProfileRequest{FullName: &name})
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("Expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "Farid Shah", "farid@example.com", "oldpass11")
	otherToken := env.login(t, "farid@example.com", "oldpass11", false)
	currentToken := env.login(t, "farid@example.com", "oldpass11", false)

	t.Run("wrong current password rejected", func(t *testing.T) {
		result, err := env.auth.ChangePassword(ctx, user.ID, currentToken, &models.ChangePasswordRequest{
			OldPassword: "guess11aa",
			NewPassword: "newpass22",
		})
		if err != nil {
			t.Fatalf("ChangePassword returned error: %v", err)
		}
		if result.Success {
			t.Fatal("Expected wrong current password to be rejected")
		}
	})

	t.Run("change revokes old password and other sessions", func(t *testing.T) {
		result, err := env.auth.ChangePassword(ctx, user.ID, currentToken, &models.ChangePasswordRequest{
			OldPassword: "oldpass11",
			NewPassword: "newpass22",
		})
		if err != nil {
			t.Fatalf("ChangePassword returned error: %v", err)
		}
		if !result.Success {
			t.Fatalf("Password change rejected: %s", result.Message)
		}

		// Old password no longer logs in.
		loginResult, err := env.auth.Login(ctx, &models.LoginRequest{
			Email:    "farid@example.com",
			Password: "oldpass11",
		})
		if err != nil {
			t.Fatalf("Login returned error: %v", err)
		}
		if loginResult.Success {
			t.Error("Expected old password to stop working")
		}

		// New password does.
		env.login(t, "farid@example.com", "newpass22", false)

		// The caller's session is re-issued, every other one is revoked.
		if _, _, err := env.auth.GetCurrentUser(ctx, currentToken); err != nil {
			t.Errorf("Expected current session to survive, got %v", err)
		}
		if _, _, err := env.auth.GetCurrentUser(ctx, otherToken); !errors.Is(err, ErrSessionExpired) {
			t.Errorf("Expected other session to be revoked, got %v", err)
		}
	})
}

func TestAuthService_DeleteAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "Gita Menon", "gita@example.com", "deleteme88")
	token := env.login(t, "gita@example.com", "deleteme88", false)
	env.uploadNote(t, user.ID, "Signals", models.NoteKindLecture)
	env.publisher.ClearEvents()

	t.Run("wrong password rejected", func(t *testing.T) {
		result, err := env.auth.DeleteAccount(ctx, user.ID, &models.DeleteAccountRequest{Password: "wrongpw99"})
		if err != nil {
			t.Fatalf("DeleteAccount returned error: %v", err)
		}
		if result.Success {
			t.Fatal("Expected wrong password to block deletion")
		}
	})

	t.Run("deletion removes user, notes and session", func(t *testing.T) {
		result, err := env.auth.DeleteAccount(ctx, user.ID, &models.DeleteAccountRequest{Password: "deleteme88"})
		if err != nil {
			t.Fatalf("DeleteAccount returned error: %v", err)
		}
		if !result.Success {
			t.Fatalf("Deletion rejected: %s", result.Message)
		}

		loginResult, err := env.auth.Login(ctx, &models.LoginRequest{
			Email:    "gita@example.com",
			Password: "deleteme88",
		})
		if err != nil {
			t.Fatalf("Login returned error: %v", err)
		}
		if loginResult.Success {
			t.Error("Expected deleted account to be unable to log in")
		}

		if _, _, err := env.auth.GetCurrentUser(ctx, token); !errors.Is(err, ErrSessionExpired) {
			t.Errorf("Expected session to be cleared, got %v", err)
		}

		notes, err := env.repo.Note().ListByUser(ctx, user.ID)
		if err != nil {
			t.Fatalf("Failed to list notes: %v", err)
		}
		if len(notes) != 0 {
			t.Errorf("Expected notes to be deleted, found %d", len(notes))
		}

		published := env.publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventUserDeleted {
			t.Errorf("Expected one %s event, got %+v", events.EventUserDeleted, published)
		}
	})

	t.Run("email is freed for re-registration", func(t *testing.T) {
		// Deletion removes the row outright, so the unique index must not
		// keep the address occupied.
		fresh := env.register(t, "Gita Returns", "gita@example.com", "comeback99")
		if fresh.ID == user.ID {
			t.Error("Expected re-registration to create a new user record")
		}
	})
}

func TestAuthService_ResetPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "Hana Ito", "hana@example.com", "forgotten44")
	token := env.login(t, "hana@example.com", "forgotten44", false)

	t.Run("unknown email rejected", func(t *testing.T) {
		result, err := env.auth.ResetPassword(ctx, &models.ResetPasswordRequest{Email: "nobody@example.com"})
		if err != nil {
			t.Fatalf("ResetPassword returned error: %v", err)
		}
		if result.Success {
			t.Fatal("Expected reset for unknown email to fail")
		}
	})

	t.Run("reset issues temporary password and revokes everything", func(t *testing.T) {
		result, err := env.auth.ResetPassword(ctx, &models.ResetPasswordRequest{Email: "hana@example.com"})
		if err != nil {
			t.Fatalf("ResetPassword returned error: %v", err)
		}
		if !result.Success {
			t.Fatalf("Reset rejected: %s", result.Message)
		}
		if result.TemporaryPassword == "" {
			t.Fatal("Expected a temporary password in the result")
		}

		// Only the hash is stored, never the temporary password itself.
		stored, err := env.repo.User().GetByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("Failed to reload user: %v", err)
		}
		if stored.PasswordHash == result.TemporaryPassword {
			t.Error("Temporary password must not be persisted in plaintext")
		}

		loginResult, err := env.auth.Login(ctx, &models.LoginRequest{
			Email:    "hana@example.com",
			Password: "forgotten44",
		})
		if err != nil {
			t.Fatalf("Login returned error: %v", err)
		}
		if loginResult.Success {
			t.Error("Expected previous password to stop working after reset")
		}

		env.login(t, "hana@example.com", result.TemporaryPassword, false)

		if _, _, err := env.auth.GetCurrentUser(ctx, token); !errors.Is(err, ErrSessionExpired) {
			t.Errorf("Expected pre-reset session to be revoked, got %v", err)
		}
	})
}
