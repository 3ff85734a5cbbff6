package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/restaurant-pos/auth"
)

// memAdmins is a minimal AdminStore for tests.
type memAdmins struct {
	mu     sync.Mutex
	admins map[string]auth.Admin
}

func newMemAdmins() *memAdmins { return &memAdmins{admins: map[string]auth.Admin{}} }

func (m *memAdmins) CreateAdmin(_ context.Context, a auth.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admins[a.ID] = a
	return nil
}

func (m *memAdmins) GetAdminByUsername(_ context.Context, username string) (*auth.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if a.Username == username {
			a := a
			return &a, nil
		}
	}
	return nil, nil
}

func (m *memAdmins) GetAdmin(_ context.Context, id string) (*auth.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admins[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func newService(t *testing.T) *auth.Service {
	t.Helper()
	tokens, err := auth.NewTokens("test-secret")
	require.NoError(t, err)
	return auth.NewService(newMemAdmins(), tokens)
}

func TestRegisterLoginVerify(t *testing.T) {
	// GIVEN: A fresh admin store
	// WHEN: Registering, then logging in
	// THEN: Both tokens resolve back to the same admin

	ctx := context.Background()
	svc := newService(t)

	admin, regToken, err := svc.Register(ctx, "manager", "s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", admin.PasswordHash)

	loggedIn, loginToken, err := svc.Login(ctx, "manager", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, loggedIn.ID)

	for _, tok := range []string{regToken, loginToken} {
		got, err := svc.Verify(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, "manager", got.Username)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, _, err := svc.Register(ctx, "manager", "a")
	require.NoError(t, err)
	_, _, err = svc.Register(ctx, "manager", "b")
	assert.ErrorIs(t, err, auth.ErrUsernameTaken)
}

func TestLogin_BadCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	_, _, err := svc.Register(ctx, "manager", "right")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "manager", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody", "right")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestTokens_Expiry(t *testing.T) {
	// GIVEN: A login token issued at a fixed instant
	// WHEN: Verifying it eight days later
	// THEN: It is rejected

	issuedAt := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	base, err := auth.NewTokens("test-secret")
	require.NoError(t, err)

	tok, err := base.WithClock(func() time.Time { return issuedAt }).
		Issue(auth.Admin{ID: "a1", Username: "manager"}, auth.LoginTokenTTL)
	require.NoError(t, err)

	claims, err := base.WithClock(func() time.Time { return issuedAt.Add(6 * 24 * time.Hour) }).Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "a1", claims.AdminID)

	_, err = base.WithClock(func() time.Time { return issuedAt.Add(8 * 24 * time.Hour) }).Verify(tok)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokens_WrongSecret(t *testing.T) {
	a, err := auth.NewTokens("one")
	require.NoError(t, err)
	b, err := auth.NewTokens("two")
	require.NoError(t, err)

	tok, err := a.Issue(auth.Admin{ID: "a1"}, time.Hour)
	require.NoError(t, err)

	_, err = b.Verify(tok)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = auth.NewTokens("")
	assert.Error(t, err)
}
