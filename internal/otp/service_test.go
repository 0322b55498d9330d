package otp

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/meadowline/backend-dairy/internal/auth"
	"github.com/meadowline/backend-dairy/internal/common"
	"github.com/meadowline/backend-dairy/internal/pricing"
	"github.com/meadowline/backend-dairy/internal/store"
)

type fakeUsers struct {
	mu             sync.Mutex
	usersByPhone   map[string]store.User
	usersByID      map[uuid.UUID]store.User
	sessionsByHash map[string]store.Session
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		usersByPhone:   make(map[string]store.User),
		usersByID:      make(map[uuid.UUID]store.User),
		sessionsByHash: make(map[string]store.Session),
	}
}

func (f *fakeUsers) GetUserByPhone(ctx context.Context, phone string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.usersByPhone[phone]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUsers) CreateUser(ctx context.Context, arg store.CreateUserParams) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	user := store.User{
		ID:        uuid.New(),
		Name:      arg.Name,
		Email:     arg.Email,
		Phone:     arg.Phone,
		Role:      arg.Role,
		CartData:  pricing.NewCart(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if arg.Phone != nil {
		f.usersByPhone[*arg.Phone] = user
	}
	f.usersByID[user.ID] = user
	return user, nil
}

func (f *fakeUsers) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	return store.User{}, store.ErrNotFound
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id uuid.UUID) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.usersByID[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUsers) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	return 0, nil
}

func (f *fakeUsers) CreateSession(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (store.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session := store.Session{ID: uuid.New(), UserID: userID, RefreshTokenHash: tokenHash, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	f.sessionsByHash[tokenHash] = session
	return session, nil
}

func (f *fakeUsers) GetSessionByTokenHash(ctx context.Context, tokenHash string) (store.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessionsByHash[tokenHash]
	if !ok {
		return store.Session{}, store.ErrNotFound
	}
	return session, nil
}

func (f *fakeUsers) RevokeSession(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeUsers) RevokeUserSessions(ctx context.Context, userID uuid.UUID) error { return nil }

type captureDispatch struct {
	phone string
	code  string
}

func (c *captureDispatch) EnqueueOTPSMS(ctx context.Context, phone, code string) error {
	c.phone = phone
	c.code = code
	return nil
}

func newTestSetup(t *testing.T) (*Service, *fakeUsers, *captureDispatch, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	users := newFakeUsers()
	authSvc, err := auth.NewService(auth.Config{
		Queries:         users,
		Secret:          "super-secret-key",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}

	dispatch := &captureDispatch{}
	svc := &Service{
		R:          client,
		Q:          users,
		Auth:       authSvc,
		Dispatch:   dispatch,
		TTL:        5 * time.Minute,
		MaxPerHour: 3,
	}
	return svc, users, dispatch, mr
}

func TestRequestAndVerifyCreatesUser(t *testing.T) {
	svc, users, dispatch, _ := newTestSetup(t)
	ctx := context.Background()

	if err := svc.Request(ctx, "+91 98765 43210"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if dispatch.phone != "+919876543210" {
		t.Fatalf("expected normalized phone, got %q", dispatch.phone)
	}
	if len(dispatch.code) != 6 {
		t.Fatalf("expected six digit code, got %q", dispatch.code)
	}

	result, err := svc.Verify(ctx, "+919876543210", dispatch.code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected token pair after verify")
	}
	if result.User.Phone != "+919876543210" {
		t.Fatalf("unexpected phone on user: %s", result.User.Phone)
	}
	if result.User.Role != auth.RoleCustomer {
		t.Fatalf("unexpected role: %s", result.User.Role)
	}
	if _, err := users.GetUserByPhone(ctx, "+919876543210"); err != nil {
		t.Fatalf("expected user to be created: %v", err)
	}

	// codes are single use
	if _, err := svc.Verify(ctx, "+919876543210", dispatch.code); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode on reuse, got %v", err)
	}
}

func TestVerifyExistingUserKeepsIdentity(t *testing.T) {
	svc, users, dispatch, _ := newTestSetup(t)
	ctx := context.Background()

	phone := "+919876543210"
	existing, err := users.CreateUser(ctx, store.CreateUserParams{Name: "Asha", Phone: &phone, Role: auth.RoleCustomer})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if err := svc.Request(ctx, phone); err != nil {
		t.Fatalf("request: %v", err)
	}
	result, err := svc.Verify(ctx, phone, dispatch.code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.User.ID != existing.ID.String() {
		t.Fatalf("expected login as existing user %s, got %s", existing.ID, result.User.ID)
	}
}

func TestVerifyWrongCode(t *testing.T) {
	svc, _, _, _ := newTestSetup(t)
	ctx := context.Background()

	if err := svc.Request(ctx, "+919876543210"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := svc.Verify(ctx, "+919876543210", "000000"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
}

func TestVerifyExpiredCode(t *testing.T) {
	svc, _, dispatch, mr := newTestSetup(t)
	ctx := context.Background()

	if err := svc.Request(ctx, "+919876543210"); err != nil {
		t.Fatalf("request: %v", err)
	}
	mr.FastForward(6 * time.Minute)
	if _, err := svc.Verify(ctx, "+919876543210", dispatch.code); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode after expiry, got %v", err)
	}
}

func TestRequestRateLimited(t *testing.T) {
	svc, _, _, _ := newTestSetup(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.Request(ctx, "+919876543210"); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if err := svc.Request(ctx, "+919876543210"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestRequestInvalidPhone(t *testing.T) {
	svc, _, _, _ := newTestSetup(t)
	if err := svc.Request(context.Background(), "not-a-phone"); !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
}

func TestRequestDirectSMSFallback(t *testing.T) {
	svc, _, _, _ := newTestSetup(t)
	sms := &common.InMemorySMS{}
	svc.Dispatch = nil
	svc.SMS = sms

	if err := svc.Request(context.Background(), "+919876543210"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if len(sms.Outbox) != 1 {
		t.Fatalf("expected one sms, got %d", len(sms.Outbox))
	}
	codeRe := regexp.MustCompile(`\b[0-9]{6}\b`)
	if !codeRe.MatchString(sms.Outbox[0].Body) {
		t.Fatalf("expected code in body: %s", sms.Outbox[0].Body)
	}
}
