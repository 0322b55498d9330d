package auth

import (
	"context"
	"testing"
	"time"
)

func registerAndLogin(t *testing.T, svc *Service) LoginResult {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.Register(ctx, "Asha", "asha@example.com", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	result, err := svc.Login(ctx, "asha@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return result
}

func TestServiceLoginIssuesTokenPair(t *testing.T) {
	svc := newTestService(t, newFakeQueries())
	result := registerAndLogin(t, svc)

	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	identity, err := svc.ParseAccessToken(result.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if identity.UserID != result.User.ID {
		t.Fatalf("subject %s does not match user %s", identity.UserID, result.User.ID)
	}
	if identity.Role != RoleCustomer {
		t.Fatalf("unexpected role: %s", identity.Role)
	}
}

func TestServiceLoginRejectsWrongPassword(t *testing.T) {
	svc := newTestService(t, newFakeQueries())
	ctx := context.Background()
	if _, err := svc.Register(ctx, "Asha", "asha@example.com", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Login(ctx, "asha@example.com", "wrong-password"); err == nil {
		t.Fatal("expected invalid credentials error")
	}
}

func TestServiceLoginIsCaseInsensitiveOnEmail(t *testing.T) {
	svc := newTestService(t, newFakeQueries())
	ctx := context.Background()
	if _, err := svc.Register(ctx, "Asha", "Asha@Example.com", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Login(ctx, "ASHA@EXAMPLE.COM", "password123"); err != nil {
		t.Fatalf("login with upper-cased email: %v", err)
	}
}

func TestServiceRefreshRotatesToken(t *testing.T) {
	queries := newFakeQueries()
	svc := newTestService(t, queries)
	result := registerAndLogin(t, svc)

	ctx := context.Background()
	refreshed, err := svc.Refresh(ctx, result.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == result.RefreshToken {
		t.Fatal("expected refresh token to rotate")
	}
	if queries.sessionCount() != 1 {
		t.Fatalf("expected exactly one live session, got %d", queries.sessionCount())
	}

	// the old token is dead after rotation
	if _, err := svc.Refresh(ctx, result.RefreshToken); err == nil {
		t.Fatal("expected rotated-out token to be rejected")
	}
	// the new one still works
	if _, err := svc.Refresh(ctx, refreshed.RefreshToken); err != nil {
		t.Fatalf("refresh with rotated token: %v", err)
	}
}

func TestServiceRefreshRejectsExpiredSession(t *testing.T) {
	svc := newTestService(t, newFakeQueries())
	result := registerAndLogin(t, svc)

	svc.WithNow(func() time.Time { return time.Now().Add(2 * time.Hour) })
	if _, err := svc.Refresh(context.Background(), result.RefreshToken); err == nil {
		t.Fatal("expected expired session to be rejected")
	}
}

func TestServiceLogoutRevokesSession(t *testing.T) {
	queries := newFakeQueries()
	svc := newTestService(t, queries)
	result := registerAndLogin(t, svc)

	ctx := context.Background()
	if err := svc.Logout(ctx, result.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if queries.sessionCount() != 0 {
		t.Fatalf("expected no live sessions, got %d", queries.sessionCount())
	}
	if _, err := svc.Refresh(ctx, result.RefreshToken); err == nil {
		t.Fatal("expected revoked token to be rejected")
	}
}

func TestServiceLogoutUnknownTokenIsSilent(t *testing.T) {
	svc := newTestService(t, newFakeQueries())
	if err := svc.Logout(context.Background(), "never-issued"); err != nil {
		t.Fatalf("logout unknown token: %v", err)
	}
}

func TestServiceEnsureAdminBootstrapsOnce(t *testing.T) {
	queries := newFakeQueries()
	svc := newTestService(t, queries)
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "admin@example.com", "very-secret-pw"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	count, err := queries.CountUsersByRole(ctx, RoleAdmin)
	if err != nil {
		t.Fatalf("count admins: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one admin, got %d", count)
	}

	// second call is a no-op
	if err := svc.EnsureAdmin(ctx, "other@example.com", "another-pw"); err != nil {
		t.Fatalf("ensure admin twice: %v", err)
	}
	count, _ = queries.CountUsersByRole(ctx, RoleAdmin)
	if count != 1 {
		t.Fatalf("expected admin bootstrap to be idempotent, got %d", count)
	}

	result, err := svc.Login(ctx, "admin@example.com", "very-secret-pw")
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if result.User.Role != RoleAdmin {
		t.Fatalf("unexpected role: %s", result.User.Role)
	}
}

func TestServiceRegisterRejectsShortPassword(t *testing.T) {
	svc := newTestService(t, newFakeQueries())
	if _, err := svc.Register(context.Background(), "Asha", "asha@example.com", "short"); err == nil {
		t.Fatal("expected short password to be rejected")
	}
}
