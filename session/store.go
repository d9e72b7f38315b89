package session

import (
	"context"
	"database/sql"
	"time"

	"github.com/vigia-dou/vigia/errors"
)

// Storage persists credentials across process restarts. The SQLite
// implementation below is the durable client storage; tests may
// substitute their own.
type Storage interface {
	Save(ctx context.Context, creds *Credentials) error
	Load(ctx context.Context) (*Credentials, error)
	Clear(ctx context.Context) error
}

// Store is the SQLite-backed credential storage. One row, one operator:
// this is the client's durable session state, not a user database.
type Store struct {
	db *sql.DB
}

// NewStore creates a credential store on db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save upserts the stored credentials.
func (s *Store) Save(ctx context.Context, creds *Credentials) error {
	var verifiedAt interface{}
	if !creds.VerifiedAt.IsZero() {
		verifiedAt = creds.VerifiedAt.UTC().Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (id, token, username, role, verified_at, saved_at)
		 VALUES (1, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   token = excluded.token,
		   username = excluded.username,
		   role = excluded.role,
		   verified_at = excluded.verified_at,
		   saved_at = excluded.saved_at`,
		creds.Token, creds.User.Username, creds.User.Role,
		verifiedAt, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return errors.Wrap(err, "failed to save credentials")
	}
	return nil
}

// Load returns the stored credentials, or nil when none are stored.
func (s *Store) Load(ctx context.Context) (*Credentials, error) {
	var creds Credentials
	var verifiedAt sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT token, username, role, verified_at FROM credentials WHERE id = 1`,
	).Scan(&creds.Token, &creds.User.Username, &creds.User.Role, &verifiedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load credentials")
	}

	if verifiedAt.Valid {
		t, err := time.Parse(time.RFC3339, verifiedAt.String)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse verified_at")
		}
		creds.VerifiedAt = t
	}

	return &creds, nil
}

// Clear removes any stored credentials. Clearing an empty store is not
// an error.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = 1`); err != nil {
		return errors.Wrap(err, "failed to clear credentials")
	}
	return nil
}
