// Package api is the typed HTTP client for the gazette-monitor
// backend. It owns the wire contracts, bearer-token attachment, rate
// limiting and the mapping from HTTP status codes to the error
// taxonomy. It implements schedule.Backend, session.Backend and
// settings.Backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vigia-dou/vigia/errors"
	"github.com/vigia-dou/vigia/schedule"
	"github.com/vigia-dou/vigia/session"
	"github.com/vigia-dou/vigia/settings"
)

// TokenSource supplies the current bearer token, empty when anonymous.
// The session guard implements it.
type TokenSource interface {
	Token() string
}

// Config holds client construction parameters.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
	Tokens            TokenSource        // nil means no bearer attachment
	Logger            *zap.SugaredLogger // nil = nop logger
}

// Client talks to the monitor backend. All authenticated traffic flows
// through a single transport that attaches the bearer token and fires
// the unauthorized hook on any 401, so token expiry is handled once
// rather than per call site. Identity endpoints (login, verify) bypass
// that transport: their 401s are verdicts, not expiry.
type Client struct {
	base    *url.URL
	authed  *http.Client // bearer + 401 hook
	plain   *http.Client // identity endpoints
	limiter *rate.Limiter
	tokens  TokenSource
	logger  *zap.SugaredLogger

	onUnauthorized func()
}

// NewClient creates a backend client from config.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid base URL %q", cfg.BaseURL)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Newf("base URL %q must be http or https", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	c := &Client{
		base:    base,
		plain:   &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm),
		tokens:  cfg.Tokens,
		logger:  logger,
	}
	c.authed = &http.Client{
		Timeout:   timeout,
		Transport: &authTransport{client: c, base: http.DefaultTransport},
	}
	return c, nil
}

// OnUnauthorized registers the hook fired whenever an authenticated
// request comes back 401. Wire it to the session guard's Invalidate.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// authTransport decorates every authenticated request with the current
// bearer token and a request ID, and reports 401 responses upstream.
type authTransport struct {
	client *Client
	base   http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.client.tokens != nil {
		if tok := t.client.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && t.client.onUnauthorized != nil {
		t.client.logger.Warnw("Authenticated request rejected, invalidating session",
			"method", req.Method, "path", req.URL.Path)
		t.client.onUnauthorized()
	}
	return resp, nil
}

// do runs one authenticated round trip: rate limit, marshal body,
// decode out on 2xx, map everything else onto the error taxonomy.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	data, err := c.doRaw(ctx, c.authed, method, path, body)
	if err != nil {
		return err
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return errors.Wrapf(err, "decode %s %s response", method, path)
		}
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, hc *http.Client, method, path string, body interface{}) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrapf(err, "marshal %s %s request", method, path)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, payload)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s %s request", method, path)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, errors.WrapNetwork(err, method+" "+path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapNetwork(err, "read "+method+" "+path+" response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp.StatusCode, data)
	}
	return data, nil
}

// decodeError maps a non-2xx response onto the error taxonomy, keeping
// the server's message in the chain.
func decodeError(status int, body []byte) error {
	var envelope apiError
	_ = json.Unmarshal(body, &envelope)
	msg := envelope.text()

	switch status {
	case http.StatusUnauthorized:
		if msg == "" {
			return errors.ErrUnauthorized
		}
		return errors.Wrap(errors.ErrUnauthorized, msg)
	case http.StatusNotFound:
		if msg == "" {
			return errors.ErrNotFound
		}
		return errors.Wrap(errors.ErrNotFound, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if msg == "" {
			msg = "request rejected"
		}
		return errors.Wrap(errors.ErrValidation, msg)
	default:
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return errors.Newf("backend returned %d: %s", status, msg)
	}
}

// Login exchanges credentials for a bearer token. Rejections surface
// the server's reason verbatim; 401 here never tears down an existing
// session. Implements session.Backend.
func (c *Client) Login(ctx context.Context, username, password string) (*session.Credentials, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	raw, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return nil, errors.Wrap(err, "marshal login request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.String()+"/login", bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "build login request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.plain.Do(req)
	if err != nil {
		return nil, errors.WrapNetwork(err, "login")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapNetwork(err, "read login response")
	}

	if resp.StatusCode != http.StatusOK {
		var envelope apiError
		_ = json.Unmarshal(data, &envelope)
		if msg := envelope.text(); msg != "" {
			// The server's rejection reason, word for word.
			return nil, errors.New(msg)
		}
		return nil, errors.Newf("login failed with status %d", resp.StatusCode)
	}

	var lr loginResponse
	if err := json.Unmarshal(data, &lr); err != nil {
		return nil, errors.Wrap(err, "decode login response")
	}
	if lr.AccessToken == "" {
		return nil, errors.New("login response missing access token")
	}

	return &session.Credentials{
		Token: lr.AccessToken,
		User: session.User{
			Username: lr.User.Username,
			Role:     lr.User.Role,
		},
		VerifiedAt: time.Now(),
	}, nil
}

// Verify checks a candidate bearer token against the backend.
// Implements session.Backend.
func (c *Client) Verify(ctx context.Context, token string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+"/verify-token", nil)
	if err != nil {
		return errors.Wrap(err, "build verify request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.plain.Do(req)
	if err != nil {
		return errors.WrapNetwork(err, "verify token")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return errors.ErrUnauthorized
	default:
		return errors.Newf("verify token returned %d", resp.StatusCode)
	}
}

// ListJobs fetches the scheduled-job collection. Implements
// schedule.Backend.
func (c *Client) ListJobs(ctx context.Context) (*schedule.Collection, error) {
	data, err := c.doRaw(ctx, c.authed, http.MethodGet, "/cron", nil)
	if err != nil {
		return nil, err
	}
	return decodeJobCollection(data)
}

// CreateJob persists a new scheduled job and returns it with the
// backend-assigned ID. Implements schedule.Backend.
func (c *Client) CreateJob(ctx context.Context, job *schedule.Job) (*schedule.Job, error) {
	data, err := c.doRaw(ctx, c.authed, http.MethodPost, "/cron", jobToWire(job))
	if err != nil {
		return nil, err
	}
	return createdJob(data, job)
}

// UpdateJob replaces an existing job. The ID travels in the body, not
// the path. Implements schedule.Backend.
func (c *Client) UpdateJob(ctx context.Context, job *schedule.Job) (*schedule.Job, error) {
	data, err := c.doRaw(ctx, c.authed, http.MethodPut, "/cron", jobToWire(job))
	if err != nil {
		return nil, err
	}
	return createdJob(data, job)
}

// createdJob prefers the backend's echo of the stored job; backend
// versions that answer with a bare status get the submitted job back.
func createdJob(data []byte, submitted *schedule.Job) (*schedule.Job, error) {
	var w jobWire
	if err := json.Unmarshal(data, &w); err == nil && w.ID != nil {
		return jobFromWire(w)
	}
	return submitted, nil
}

// DeleteJob removes a job. The ID travels in the body. Implements
// schedule.Backend.
func (c *Client) DeleteJob(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/cron", map[string]int64{"id": id}, nil)
}

// GetSettings fetches the system email configuration. Implements
// settings.Backend.
func (c *Client) GetSettings(ctx context.Context) (*settings.Settings, error) {
	var w settingsWire
	if err := c.do(ctx, http.MethodGet, "/config", nil, &w); err != nil {
		return nil, err
	}
	return settingsFromWire(w), nil
}

// ReplaceSettings replaces the system email configuration wholesale.
// Implements settings.Backend.
func (c *Client) ReplaceSettings(ctx context.Context, s *settings.Settings) error {
	return c.do(ctx, http.MethodPut, "/config", settingsToWire(s), nil)
}

// ExecuteSearch runs an on-demand search on the backend. This is a
// long round trip; the caller holds the execution lock for its length.
func (c *Client) ExecuteSearch(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	var result SearchResult
	if err := c.do(ctx, http.MethodPost, "/executar-busca", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DownloadActivityLog streams the backend's activity log into w.
func (c *Client) DownloadActivityLog(ctx context.Context, w io.Writer) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+"/registro", nil)
	if err != nil {
		return errors.Wrap(err, "build activity log request")
	}

	resp, err := c.authed.Do(req)
	if err != nil {
		return errors.WrapNetwork(err, "download activity log")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return decodeError(resp.StatusCode, data)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return errors.WrapNetwork(err, "stream activity log")
	}
	return nil
}

var (
	_ schedule.Backend = (*Client)(nil)
	_ session.Backend  = (*Client)(nil)
	_ settings.Backend = (*Client)(nil)
)

// ChangePassword rotates the operator's password.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.do(ctx, http.MethodPut, "/change-password",
		changePasswordRequest{CurrentPassword: current, NewPassword: next}, nil)
}
