// Package commands contains the vigia CLI commands.
package commands

import (
	"context"
	"database/sql"
	"time"

	"github.com/vigia-dou/vigia/api"
	"github.com/vigia-dou/vigia/config"
	"github.com/vigia-dou/vigia/db"
	"github.com/vigia-dou/vigia/errors"
	"github.com/vigia-dou/vigia/logger"
	"github.com/vigia-dou/vigia/schedule"
	"github.com/vigia-dou/vigia/search"
	"github.com/vigia-dou/vigia/session"
	"github.com/vigia-dou/vigia/settings"
)

// tokenRelay breaks the construction cycle between the API client and
// the session guard: the client needs a token source before the guard
// that supplies tokens exists.
type tokenRelay struct {
	guard *session.Guard
}

func (r *tokenRelay) Token() string {
	if r.guard == nil {
		return ""
	}
	return r.guard.Token()
}

// app bundles the wired components every command needs.
type app struct {
	cfg      *config.Config
	database *sql.DB
	client   *api.Client
	guard    *session.Guard
	lock     *search.Lock
	jobs     *schedule.Manager
	settings *settings.Manager
	runner   *search.Runner
	history  *search.Store
}

// newApp loads configuration, opens the local database and wires the
// client, session guard, execution lock and managers together.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	database, err := db.Open(cfg.Database.Path, logger.Logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if err := db.Migrate(database, logger.Logger); err != nil {
		database.Close()
		return nil, errors.Wrap(err, "failed to migrate database")
	}

	relay := &tokenRelay{}
	client, err := api.NewClient(api.Config{
		BaseURL:           cfg.Server.BaseURL,
		Timeout:           time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		RequestsPerMinute: cfg.Server.RequestsPerMinute,
		Tokens:            relay,
		Logger:            logger.Logger,
	})
	if err != nil {
		database.Close()
		return nil, err
	}

	guard := session.NewGuard(session.NewStore(database), client, logger.Logger)
	relay.guard = guard
	client.OnUnauthorized(guard.Invalidate)

	lock := search.NewLock()
	history := search.NewStore(database)
	runner := search.NewRunner(lock, client, history, logger.Logger)

	return &app{
		cfg:      cfg,
		database: database,
		client:   client,
		guard:    guard,
		lock:     lock,
		jobs:     schedule.NewManager(client, lock, guard, logger.Logger),
		settings: settings.NewManager(client, lock, logger.Logger),
		runner:   runner,
		history:  history,
	}, nil
}

// newAuthedApp builds the app and restores the persisted session.
// Commands that talk to protected endpoints require a valid token.
func newAuthedApp(ctx context.Context) (*app, error) {
	a, err := newApp()
	if err != nil {
		return nil, err
	}

	if err := a.guard.Restore(ctx); err != nil {
		a.Close()
		return nil, errors.Wrap(err, "failed to restore session")
	}
	if !a.guard.Authenticated() {
		a.Close()
		return nil, errors.New("not logged in, run 'vigia login' first")
	}
	return a, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	if a.database != nil {
		a.database.Close()
	}
}
