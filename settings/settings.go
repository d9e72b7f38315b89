// Package settings models the backend's system configuration: the
// primary delivery email and the alert list, replace-style updates only.
package settings

import (
	"context"

	"go.uber.org/zap"

	"github.com/vigia-dou/vigia/errors"
	"github.com/vigia-dou/vigia/internal/util"
)

// Settings is the system email configuration. The audit fields are
// advisory and maintained by the backend.
type Settings struct {
	PrimaryEmail string
	AlertEmails  []string

	LastChangedBy string
	LastChangedAt string
	AccessedBy    string
}

// Validate checks the email configuration and normalizes the alert
// list (trimmed, deduplicated, first occurrence wins).
func (s *Settings) Validate() error {
	if s.PrimaryEmail == "" {
		return errors.NewValidationError("primary email is required")
	}
	if !util.ValidEmail(s.PrimaryEmail) {
		return errors.NewValidationError("primary email %q is not a valid address", s.PrimaryEmail)
	}

	s.AlertEmails = util.TrimDedup(s.AlertEmails)
	for _, email := range s.AlertEmails {
		if !util.ValidEmail(email) {
			return errors.NewValidationError("alert email %q is not a valid address", email)
		}
	}
	return nil
}

// Backend is the settings slice of the remote API.
type Backend interface {
	GetSettings(ctx context.Context) (*Settings, error)
	ReplaceSettings(ctx context.Context, s *Settings) error
}

// Gate reports whether the client-wide execution lock is held.
type Gate interface {
	Held() bool
}

// Manager validates and routes settings operations to the backend.
// Like schedule mutations, replacement is refused while a search runs.
type Manager struct {
	backend Backend
	gate    Gate
	logger  *zap.SugaredLogger
}

// NewManager creates a settings manager. gate may be nil.
func NewManager(backend Backend, gate Gate, logger *zap.SugaredLogger) *Manager {
	return &Manager{backend: backend, gate: gate, logger: logger}
}

// Get fetches the current settings.
func (m *Manager) Get(ctx context.Context) (*Settings, error) {
	return m.backend.GetSettings(ctx)
}

// Replace validates s and replaces the backend settings with it.
func (m *Manager) Replace(ctx context.Context, s *Settings) error {
	if m.gate != nil && m.gate.Held() {
		return errors.ErrBusy
	}

	if err := s.Validate(); err != nil {
		return err
	}

	if err := m.backend.ReplaceSettings(ctx, s); err != nil {
		return errors.Wrap(err, "replace settings")
	}

	m.logger.Infow("System settings replaced",
		"primary_email", s.PrimaryEmail,
		"alert_emails", len(s.AlertEmails))
	return nil
}
