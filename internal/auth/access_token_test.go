package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

func TestServiceParseAccessTokenSuccess(t *testing.T) {
	svc := newTestService(t, newFakeQueries())
	fixed := time.Now()
	svc.WithNow(func() time.Time { return fixed })

	token, _, err := svc.signAccessToken("user-id", RoleCustomer)
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}
	identity, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if identity.UserID != "user-id" {
		t.Fatalf("unexpected subject: %s", identity.UserID)
	}
	if identity.Role != RoleCustomer {
		t.Fatalf("unexpected role: %s", identity.Role)
	}
}

func TestServiceParseAccessTokenCarriesAdminRole(t *testing.T) {
	svc := newTestService(t, newFakeQueries())

	token, _, err := svc.signAccessToken("admin-id", RoleAdmin)
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}
	identity, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if identity.Role != RoleAdmin {
		t.Fatalf("unexpected role: %s", identity.Role)
	}
}

func TestServiceParseAccessTokenRejectsExpired(t *testing.T) {
	svc := newTestService(t, newFakeQueries())
	past := time.Now().Add(-2 * time.Hour)
	svc.WithNow(func() time.Time { return past })

	token, _, err := svc.signAccessToken("user-id", RoleCustomer)
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}

	svc.WithNow(time.Now)
	if _, err := svc.ParseAccessToken(token); err == nil {
		t.Fatal("expected expired token error")
	}
}

func TestServiceParseAccessTokenRejectsAlgorithmMismatch(t *testing.T) {
	svc := newTestService(t, newFakeQueries())
	fixed := time.Now()
	svc.WithNow(func() time.Time { return fixed })

	built, err := jwt.NewBuilder().
		Subject("user-id").
		Issuer(svc.issuer).
		Audience([]string{svc.audience}).
		IssuedAt(fixed).
		NotBefore(fixed.Add(-svc.clockSkew)).
		Expiration(fixed.Add(svc.accessTTL)).
		Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	signed, err := jwt.Sign(built, jwt.WithKey(jwa.HS384, svc.secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := svc.ParseAccessToken(string(signed)); err == nil {
		t.Fatal("expected algorithm mismatch error")
	}
}

func TestServiceParseAccessTokenRejectsWrongIssuer(t *testing.T) {
	svc := newTestService(t, newFakeQueries())
	fixed := time.Now()

	built, err := jwt.NewBuilder().
		Subject("user-id").
		Issuer("someone-else").
		Audience([]string{svc.audience}).
		IssuedAt(fixed).
		Expiration(fixed.Add(svc.accessTTL)).
		Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	signed, err := jwt.Sign(built, jwt.WithKey(jwa.HS256, svc.secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := svc.ParseAccessToken(string(signed)); err == nil {
		t.Fatal("expected issuer mismatch error")
	}
}
