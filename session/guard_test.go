package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vigia-dou/vigia/errors"
	vigiatest "github.com/vigia-dou/vigia/internal/testing"
)

// fakeBackend scripts login and verify outcomes.
type fakeBackend struct {
	loginCreds *Credentials
	loginErr   error
	verifyErr  error
	verifies   int
}

func (f *fakeBackend) Login(ctx context.Context, username, password string) (*Credentials, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginCreds, nil
}

func (f *fakeBackend) Verify(ctx context.Context, token string) error {
	f.verifies++
	return f.verifyErr
}

func newTestGuard(t *testing.T, backend Backend) (*Guard, *Store) {
	t.Helper()
	store := NewStore(vigiatest.CreateTestDB(t))
	return NewGuard(store, backend, zap.NewNop().Sugar()), store
}

func operatorCreds() *Credentials {
	return &Credentials{
		Token: "tok-abc",
		User:  User{Username: "operador", Role: "admin"},
	}
}

func TestLoginSuccess(t *testing.T) {
	guard, store := newTestGuard(t, &fakeBackend{loginCreds: operatorCreds()})
	ctx := context.Background()

	require.NoError(t, guard.Login(ctx, "operador", "s3cret"))
	assert.Equal(t, Authenticated, guard.State())
	assert.Equal(t, "tok-abc", guard.Token())

	user, ok := guard.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "operador", user.Username)

	// Credentials must have been persisted durably
	stored, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "tok-abc", stored.Token)
}

func TestLoginFailureKeepsAnonymousAndVerbatimMessage(t *testing.T) {
	serverMsg := "Usuário ou senha inválidos"
	guard, _ := newTestGuard(t, &fakeBackend{loginErr: errors.New(serverMsg)})

	err := guard.Login(context.Background(), "operador", "wrong")
	require.Error(t, err)
	assert.Equal(t, serverMsg, err.Error(), "server rejection reason must surface verbatim")
	assert.Equal(t, Anonymous, guard.State())
	assert.Empty(t, guard.Token())
}

func TestRestoreWithNothingStored(t *testing.T) {
	backend := &fakeBackend{}
	guard, _ := newTestGuard(t, backend)

	require.NoError(t, guard.Restore(context.Background()))
	assert.Equal(t, Anonymous, guard.State())
	assert.Zero(t, backend.verifies, "no stored token means no verification round trip")
}

func TestRestoreVerifiesStoredToken(t *testing.T) {
	backend := &fakeBackend{}
	guard, store := newTestGuard(t, backend)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, operatorCreds()))
	require.NoError(t, guard.Restore(ctx))

	assert.Equal(t, Authenticated, guard.State())
	assert.Equal(t, 1, backend.verifies, "exactly one verification round trip")
	assert.Equal(t, "operador", guard.Username())
}

func TestRestoreRejectionClearsStorage(t *testing.T) {
	backend := &fakeBackend{verifyErr: errors.ErrUnauthorized}
	guard, store := newTestGuard(t, backend)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, operatorCreds()))
	require.NoError(t, guard.Restore(ctx))

	assert.Equal(t, Anonymous, guard.State(), "rejected token must never yield Authenticated")

	stored, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored, "rejected credentials must be cleared from durable storage")
}

func TestRestoreNetworkErrorFailsClosed(t *testing.T) {
	backend := &fakeBackend{verifyErr: errors.WrapNetwork(errors.New("connection refused"), "verify token")}
	guard, store := newTestGuard(t, backend)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, operatorCreds()))
	require.NoError(t, guard.Restore(ctx))

	assert.Equal(t, Anonymous, guard.State(),
		"a network error during verification is treated identically to rejection")

	stored, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestLogoutClearsEverything(t *testing.T) {
	guard, store := newTestGuard(t, &fakeBackend{loginCreds: operatorCreds()})
	ctx := context.Background()

	require.NoError(t, guard.Login(ctx, "operador", "s3cret"))
	guard.Logout()

	assert.Equal(t, Anonymous, guard.State())
	assert.Empty(t, guard.Token())

	stored, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestInvalidateBehavesLikeLogout(t *testing.T) {
	guard, store := newTestGuard(t, &fakeBackend{loginCreds: operatorCreds()})
	ctx := context.Background()

	require.NoError(t, guard.Login(ctx, "operador", "s3cret"))
	guard.Invalidate()

	assert.Equal(t, Anonymous, guard.State())

	stored, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "anonymous", Anonymous.String())
	assert.Equal(t, "authenticating", Authenticating.String())
	assert.Equal(t, "authenticated", Authenticated.String())
}
