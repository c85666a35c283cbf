package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"moodjournal/internal/database"
	"moodjournal/internal/repository"
	"moodjournal/internal/security"
	"moodjournal/internal/validation"
)

func newServiceTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func newTestAuthService(t *testing.T, duration time.Duration) *AuthService {
	t.Helper()
	db := newServiceTestDB(t)
	return NewAuthService(repository.NewUserRepository(db), security.NewTokenIssuer("test-secret"), duration)
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	auth := newTestAuthService(t, time.Hour)
	ctx := context.Background()

	user, err := auth.Register(ctx, "  Mina@Example.com ", "password123", "민아")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Email != "mina@example.com" {
		t.Errorf("Register() email = %q, want lowercased", user.Email)
	}

	if _, err := auth.Register(ctx, "mina@example.com", "password123", "민아"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate Register() error = %v, want %v", err, ErrEmailTaken)
	}

	var validationErr validation.ValidationError
	if _, err := auth.Register(ctx, "other@example.com", "short", "민아"); !errors.As(err, &validationErr) {
		t.Errorf("Register() with short password error = %v, want validation error", err)
	}

	if _, err := auth.Login(ctx, "mina@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() with bad password error = %v, want %v", err, ErrInvalidCredentials)
	}
	if _, err := auth.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() for unknown user error = %v, want %v", err, ErrInvalidCredentials)
	}

	result, err := auth.Login(ctx, "MINA@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token == "" || result.User.ID != user.ID {
		t.Fatalf("Login() = %+v", result)
	}

	authed, session, err := auth.Authenticate(ctx, result.Token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if authed.ID != user.ID || session.UserID != user.ID {
		t.Errorf("Authenticate() user = %d, session user = %d, want %d", authed.ID, session.UserID, user.ID)
	}

	if err := auth.Logout(ctx, session.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, _, err := auth.Authenticate(ctx, result.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Authenticate() after Logout() error = %v, want %v", err, ErrSessionNotFound)
	}
}

func TestAuthServiceRejectsGarbageToken(t *testing.T) {
	auth := newTestAuthService(t, time.Hour)

	if _, _, err := auth.Authenticate(context.Background(), "not-a-token"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Authenticate() error = %v, want %v", err, ErrSessionNotFound)
	}
}

func TestAuthServiceExpiredSession(t *testing.T) {
	auth := newTestAuthService(t, -time.Minute)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "late@example.com", "password123", "Late"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	result, err := auth.Login(ctx, "late@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if _, _, err := auth.Authenticate(ctx, result.Token); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Authenticate() error = %v, want %v", err, ErrSessionExpired)
	}
	if err := auth.CleanupExpiredSessions(ctx); err != nil {
		t.Errorf("CleanupExpiredSessions() error = %v", err)
	}
}

func TestAuthServiceOAuthLogin(t *testing.T) {
	auth := newTestAuthService(t, time.Hour)
	ctx := context.Background()

	if _, err := auth.OAuthLogin(ctx, "", "sub", "a@example.com", "A"); !errors.Is(err, ErrMissingOAuthInfo) {
		t.Errorf("OAuthLogin() without provider error = %v, want %v", err, ErrMissingOAuthInfo)
	}

	created, err := auth.OAuthLogin(ctx, "google", "g-1", "new@example.com", "")
	if err != nil {
		t.Fatalf("OAuthLogin() error = %v", err)
	}
	if created.User.Name != "new" || created.User.OAuthProvider != "google" {
		t.Errorf("OAuthLogin() user = %+v", created.User)
	}

	again, err := auth.OAuthLogin(ctx, "google", "g-1", "new@example.com", "")
	if err != nil {
		t.Fatalf("second OAuthLogin() error = %v", err)
	}
	if again.User.ID != created.User.ID {
		t.Errorf("second OAuthLogin() user = %d, want %d", again.User.ID, created.User.ID)
	}

	registered, err := auth.Register(ctx, "local@example.com", "password123", "Local")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	linked, err := auth.OAuthLogin(ctx, "facebook", "f-1", "local@example.com", "Local")
	if err != nil {
		t.Fatalf("OAuthLogin() linking error = %v", err)
	}
	if linked.User.ID != registered.ID {
		t.Errorf("OAuthLogin() linked user = %d, want %d", linked.User.ID, registered.ID)
	}

	if _, err := auth.OAuthLogin(ctx, "google", "g-2", "local@example.com", "Local"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("OAuthLogin() with other provider error = %v, want %v", err, ErrEmailTaken)
	}
}
