package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vigia-dou/vigia/errors"
)

type fakeBackend struct {
	stored   *Settings
	replaces int
}

func (f *fakeBackend) GetSettings(ctx context.Context) (*Settings, error) {
	if f.stored == nil {
		return &Settings{}, nil
	}
	cp := *f.stored
	return &cp, nil
}

func (f *fakeBackend) ReplaceSettings(ctx context.Context, s *Settings) error {
	f.replaces++
	cp := *s
	f.stored = &cp
	return nil
}

type heldGate struct{ held bool }

func (g *heldGate) Held() bool { return g.held }

func TestValidateRequiresPrimaryEmail(t *testing.T) {
	s := &Settings{AlertEmails: []string{"a@b.co"}}
	err := s.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestValidateRejectsBadEmails(t *testing.T) {
	cases := []Settings{
		{PrimaryEmail: "not an email"},
		{PrimaryEmail: "ok@example.com", AlertEmails: []string{"missing-at.example.com"}},
		{PrimaryEmail: "ok@example.com", AlertEmails: []string{"two@at@signs.com"}},
	}
	for _, s := range cases {
		err := s.Validate()
		require.Error(t, err)
		assert.True(t, errors.IsValidationError(err))
	}
}

func TestValidateDeduplicatesAlerts(t *testing.T) {
	s := &Settings{
		PrimaryEmail: "main@example.com",
		AlertEmails:  []string{" a@example.com ", "b@example.com", "a@example.com", ""},
	}
	require.NoError(t, s.Validate())
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, s.AlertEmails)
}

func TestReplaceBlockedWhileGateHeld(t *testing.T) {
	backend := &fakeBackend{}
	gate := &heldGate{held: true}
	m := NewManager(backend, gate, zap.NewNop().Sugar())

	err := m.Replace(context.Background(), &Settings{PrimaryEmail: "main@example.com"})
	require.Error(t, err)
	assert.True(t, errors.IsBusyError(err))
	assert.Zero(t, backend.replaces)
}

func TestReplaceValidatesBeforeBackend(t *testing.T) {
	backend := &fakeBackend{}
	m := NewManager(backend, nil, zap.NewNop().Sugar())

	err := m.Replace(context.Background(), &Settings{})
	require.Error(t, err)
	assert.Zero(t, backend.replaces)
}

func TestReplaceRoundTrip(t *testing.T) {
	backend := &fakeBackend{}
	m := NewManager(backend, &heldGate{}, zap.NewNop().Sugar())

	in := &Settings{
		PrimaryEmail: "main@example.com",
		AlertEmails:  []string{"alert@example.com", "alert@example.com"},
	}
	require.NoError(t, m.Replace(context.Background(), in))

	got, err := m.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "main@example.com", got.PrimaryEmail)
	assert.Equal(t, []string{"alert@example.com"}, got.AlertEmails)
}
