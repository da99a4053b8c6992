package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/partsledger/partsledger/internal/shared"
)

type fakeRepo struct {
	users    map[string]*User
	sessions map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    make(map[string]*User),
		sessions: make(map[string]string),
	}
}

func (f *fakeRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeRepo) FindByID(_ context.Context, id string) (*User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (f *fakeRepo) CreateSession(_ context.Context, id, userID string, _ time.Time, _, _ string) error {
	f.sessions[id] = userID
	return nil
}

func (f *fakeRepo) DeleteSession(_ context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func seedUser(t *testing.T, repo *fakeRepo, password string, active bool) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &User{ID: "u1", Email: "owner@example.com", PasswordHash: string(hash), IsActive: active}
	repo.users[user.ID] = user
	return user
}

func TestAuthenticate(t *testing.T) {
	repo := newFakeRepo()
	seedUser(t, repo, "correct-horse", true)
	svc := NewService(repo)

	user, err := svc.Authenticate(context.Background(), "owner@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	repo := newFakeRepo()
	seedUser(t, repo, "correct-horse", true)
	svc := NewService(repo)

	_, err := svc.Authenticate(context.Background(), "owner@example.com", "battery-staple")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Authenticate(context.Background(), "nobody@example.com", "whatever1")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateInactiveUser(t *testing.T) {
	repo := newFakeRepo()
	seedUser(t, repo, "correct-horse", false)
	svc := NewService(repo)

	_, err := svc.Authenticate(context.Background(), "owner@example.com", "correct-horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestCurrentUserRequiresID(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.CurrentUser(context.Background(), "")
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestSessionLifecycle(t *testing.T) {
	repo := newFakeRepo()
	seedUser(t, repo, "correct-horse", true)
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.RegisterSession(ctx, "s1", "u1", time.Now().Add(time.Hour), "127.0.0.1", "cli"))
	assert.Equal(t, "u1", repo.sessions["s1"])

	require.NoError(t, svc.RemoveSession(ctx, "s1"))
	assert.Empty(t, repo.sessions)
}
