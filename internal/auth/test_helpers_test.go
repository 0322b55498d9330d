package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meadowline/backend-dairy/internal/pricing"
	"github.com/meadowline/backend-dairy/internal/store"
)

type fakeQueries struct {
	mu             sync.Mutex
	usersByEmail   map[string]store.User
	usersByID      map[uuid.UUID]store.User
	sessionsByHash map[string]store.Session
}

func newFakeQueries() *fakeQueries {
	return &fakeQueries{
		usersByEmail:   make(map[string]store.User),
		usersByID:      make(map[uuid.UUID]store.User),
		sessionsByHash: make(map[string]store.Session),
	}
}

func (f *fakeQueries) CreateUser(ctx context.Context, arg store.CreateUserParams) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if arg.Email != nil {
		if _, exists := f.usersByEmail[strings.ToLower(*arg.Email)]; exists {
			return store.User{}, fmt.Errorf("duplicate email")
		}
	}
	now := time.Now()
	user := store.User{
		ID:           uuid.New(),
		Name:         arg.Name,
		Email:        arg.Email,
		Phone:        arg.Phone,
		PasswordHash: arg.PasswordHash,
		Role:         arg.Role,
		CartData:     pricing.NewCart(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if arg.Email != nil {
		f.usersByEmail[strings.ToLower(*arg.Email)] = user
	}
	f.usersByID[user.ID] = user
	return user, nil
}

func (f *fakeQueries) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.usersByEmail[strings.ToLower(email)]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeQueries) GetUserByID(ctx context.Context, id uuid.UUID) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.usersByID[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeQueries) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, user := range f.usersByID {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

func (f *fakeQueries) CreateSession(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (store.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session := store.Session{
		ID:               uuid.New(),
		UserID:           userID,
		RefreshTokenHash: tokenHash,
		ExpiresAt:        expiresAt,
		CreatedAt:        time.Now(),
	}
	f.sessionsByHash[tokenHash] = session
	return session, nil
}

func (f *fakeQueries) GetSessionByTokenHash(ctx context.Context, tokenHash string) (store.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessionsByHash[tokenHash]
	if !ok {
		return store.Session{}, store.ErrNotFound
	}
	return session, nil
}

func (f *fakeQueries) RevokeSession(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for hash, session := range f.sessionsByHash {
		if session.ID == id {
			delete(f.sessionsByHash, hash)
			return nil
		}
	}
	return nil
}

func (f *fakeQueries) RevokeUserSessions(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for hash, session := range f.sessionsByHash {
		if session.UserID == userID {
			delete(f.sessionsByHash, hash)
		}
	}
	return nil
}

func (f *fakeQueries) sessionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessionsByHash)
}

func newTestService(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, queries Querier) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Queries:         queries,
		Secret:          "super-secret-key",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		Issuer:          "backend-dairy",
		Audience:        "dairy-storefront",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}
