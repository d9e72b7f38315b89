// Package session owns the bearer-token lifecycle: acquisition,
// durable persistence, server-side verification and expiry-driven
// teardown. All schedule operations require a currently valid token;
// the guard is the single writer of that token.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// User identifies the authenticated operator.
type User struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Credentials is a bearer token plus the user it belongs to.
type Credentials struct {
	Token      string
	User       User
	VerifiedAt time.Time // last successful server verification
}

// State is the guard's position in its lifecycle.
type State int

const (
	// Anonymous means no valid credentials are held.
	Anonymous State = iota
	// Authenticating means a login round trip is in flight.
	Authenticating
	// Authenticated means a server-verified token is held.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Backend is the identity slice of the remote API: credential exchange
// and token verification.
type Backend interface {
	// Login exchanges credentials for a token. On rejection the returned
	// error carries the server's reason verbatim.
	Login(ctx context.Context, username, password string) (*Credentials, error)
	// Verify checks a bearer token against the backend. Any error,
	// including a transport failure, means the token cannot be trusted.
	Verify(ctx context.Context, token string) error
}

// Guard is the session state machine:
//
//	Anonymous -> Authenticating -> Authenticated -> Anonymous
//
// Transitions back to Anonymous happen on logout, on failed restore
// verification, and asynchronously when any authenticated request
// comes back unauthorized.
type Guard struct {
	mu      sync.RWMutex
	state   State
	creds   *Credentials
	store   Storage
	backend Backend
	logger  *zap.SugaredLogger
}

// NewGuard creates a session guard over the given storage and backend.
func NewGuard(store Storage, backend Backend, logger *zap.SugaredLogger) *Guard {
	return &Guard{
		state:   Anonymous,
		store:   store,
		backend: backend,
		logger:  logger,
	}
}

// Login authenticates against the identity endpoint. On success the
// credentials are captured in memory and persisted durably. On failure
// the guard stays Anonymous and the server's rejection reason is
// returned unchanged.
func (g *Guard) Login(ctx context.Context, username, password string) error {
	g.mu.Lock()
	g.state = Authenticating
	g.mu.Unlock()

	creds, err := g.backend.Login(ctx, username, password)
	if err != nil {
		g.mu.Lock()
		g.state = Anonymous
		g.creds = nil
		g.mu.Unlock()
		return err
	}

	creds.VerifiedAt = time.Now()

	g.mu.Lock()
	g.state = Authenticated
	g.creds = creds
	g.mu.Unlock()

	if err := g.store.Save(ctx, creds); err != nil {
		// The session is live either way; it just won't survive a restart.
		g.logger.Warnw("Failed to persist credentials", "error", err)
	}

	g.logger.Infow("Logged in", "username", creds.User.Username, "role", creds.User.Role)
	return nil
}

// Restore is invoked once at process start. If durable storage holds
// credentials, one verification round trip decides their fate: success
// transitions to Authenticated with no further network calls; any
// failure, including a network error, treats the stored token as
// invalid, clears storage and resolves to Anonymous. Fail closed: a
// false "still valid" would let a stale credential keep mutating
// schedules.
func (g *Guard) Restore(ctx context.Context) error {
	creds, err := g.store.Load(ctx)
	if err != nil {
		return err
	}
	if creds == nil {
		return nil // nothing stored, stay Anonymous
	}

	if err := g.backend.Verify(ctx, creds.Token); err != nil {
		g.logger.Infow("Stored credentials rejected, clearing",
			"username", creds.User.Username,
			"error", err)
		if clearErr := g.store.Clear(ctx); clearErr != nil {
			g.logger.Warnw("Failed to clear rejected credentials", "error", clearErr)
		}
		return nil
	}

	creds.VerifiedAt = time.Now()

	g.mu.Lock()
	g.state = Authenticated
	g.creds = creds
	g.mu.Unlock()

	g.logger.Infow("Session restored", "username", creds.User.Username)
	return nil
}

// Logout unconditionally clears in-memory and durable credential state.
// Never blocks on network.
func (g *Guard) Logout() {
	g.teardown("logout")
}

// Invalidate is the asynchronous teardown triggered when any
// authenticated request comes back unauthorized, regardless of which
// request surfaced it. Identical to Logout; the distinct name keeps
// log lines honest about why the session ended.
func (g *Guard) Invalidate() {
	g.teardown("token rejected by backend")
}

func (g *Guard) teardown(reason string) {
	g.mu.Lock()
	wasAuthenticated := g.state == Authenticated
	g.state = Anonymous
	g.creds = nil
	g.mu.Unlock()

	// Durable state goes too; a short context keeps this from hanging.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := g.store.Clear(ctx); err != nil {
		g.logger.Warnw("Failed to clear stored credentials", "error", err)
	}

	if wasAuthenticated {
		g.logger.Infow("Session ended", "reason", reason)
	}
}

// State returns the guard's current lifecycle state.
func (g *Guard) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Authenticated reports whether a verified token is held.
func (g *Guard) Authenticated() bool {
	return g.State() == Authenticated
}

// Token returns the current bearer token, or "" when Anonymous.
// Shared-read: only Login, Restore and the teardown paths write it.
func (g *Guard) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.creds == nil {
		return ""
	}
	return g.creds.Token
}

// CurrentUser returns the authenticated user, if any.
func (g *Guard) CurrentUser() (User, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.creds == nil {
		return User{}, false
	}
	return g.creds.User, true
}

// Username names the operator for audit trails. Empty when Anonymous.
func (g *Guard) Username() string {
	u, _ := g.CurrentUser()
	return u.Username
}
