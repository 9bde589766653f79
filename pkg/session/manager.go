package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Default timeout for token-endpoint and authenticated calls. The original
// client ran every request to completion with no limit; a bound is the safer
// default and callers can override it via Config.HTTPClient.
const defaultTimeout = 30 * time.Second

// Token endpoint paths, relative to the API base URL.
const (
	tokenPath   = "/token"
	refreshPath = "/token/refresh"
)

// Config configures a Manager.
type Config struct {
	// BaseURL is the API root, e.g. "https://sigoc.example.org/api/v1".
	BaseURL string

	// HTTPClient is the transport used for every call. Defaults to a client
	// with a 30s timeout.
	HTTPClient *http.Client

	// Logger receives structured request/auth events. Defaults to slog.Default.
	Logger *slog.Logger
}

// Manager owns the process-wide Session. It is constructed once at the
// composition root and handed to every component that issues authenticated
// calls; nothing here is a package-level singleton.
type Manager struct {
	store  Store
	base   string
	client *http.Client
	logger *slog.Logger

	// refreshGroup coalesces concurrent refresh attempts: when several
	// requests hit a 401 at once, exactly one refresh call reaches the
	// server and all callers share its result.
	refreshGroup singleflight.Group
}

// NewManager creates a session manager backed by the given credential store.
func NewManager(store Store, cfg Config) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("API base URL is required")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		store:  store,
		base:   strings.TrimSuffix(cfg.BaseURL, "/"),
		client: client,
		logger: logger,
	}, nil
}

// tokenPair is the wire shape of the token endpoint response.
type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Login exchanges credentials for a token pair and persists it. A rejected
// login returns ErrInvalidCredentials and leaves any prior session untouched;
// an access token that cannot be decoded returns ErrMalformedToken and
// persists nothing.
func (m *Manager) Login(ctx context.Context, identifier, secret string) (*Session, error) {
	body := map[string]string{"identifier": identifier, "secret": secret}
	resp, err := m.postJSON(ctx, tokenPath, body)
	if err != nil {
		return nil, fmt.Errorf("calling token endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		m.logger.Warn("login rejected", "status", resp.StatusCode)
		return nil, ErrInvalidCredentials
	}

	var pair tokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}

	sess, err := newSession(pair.Access, pair.Refresh)
	if err != nil {
		return nil, err
	}

	rec := &Record{AccessToken: pair.Access, RefreshToken: pair.Refresh}
	if err := m.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	m.logger.Info("login succeeded", "subject", sess.Subject)
	return sess, nil
}

// Current reconstructs the Session from the persisted record. An access token
// whose expiry is in the past with no refresh token to recover from is swept:
// the record is cleared and ErrNoSession returned. The sweep is lazy; there is
// no background timer, and calling Current twice yields the same result.
func (m *Manager) Current(ctx context.Context) (*Session, error) {
	rec, err := m.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if rec == nil {
		return nil, ErrNoSession
	}

	sess, err := newSession(rec.AccessToken, rec.RefreshToken)
	if err != nil {
		return nil, err
	}

	if sess.Expired(time.Now()) && rec.RefreshToken == "" {
		if err := m.store.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clearing expired session: %w", err)
		}
		m.logger.Info("expired session swept")
		return nil, ErrNoSession
	}
	return sess, nil
}

// Logout clears the persisted session unconditionally. Idempotent.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	m.logger.Info("logged out")
	return nil
}

// Refresh posts the stored refresh token and overwrites only the access token
// on success; the refresh token is preserved. A rejected refresh clears the
// entire persisted record and returns ErrRefreshFailed. Concurrent callers
// are coalesced into a single refresh call.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	access, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		return m.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return access.(string), nil
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	rec, err := m.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("loading session: %w", err)
	}
	if rec == nil || rec.RefreshToken == "" {
		_ = m.store.Clear(ctx)
		return "", fmt.Errorf("%w: no refresh token", ErrRefreshFailed)
	}

	resp, err := m.postJSON(ctx, refreshPath, map[string]string{"refresh": rec.RefreshToken})
	if err != nil {
		return "", fmt.Errorf("calling refresh endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = m.store.Clear(ctx)
		m.logger.Warn("refresh rejected, session cleared", "status", resp.StatusCode)
		return "", fmt.Errorf("%w: status %d", ErrRefreshFailed, resp.StatusCode)
	}

	var pair tokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return "", fmt.Errorf("decoding refresh response: %w", err)
	}

	rec.AccessToken = pair.Access
	if err := m.store.Save(ctx, rec); err != nil {
		return "", fmt.Errorf("persisting refreshed session: %w", err)
	}

	m.logger.Debug("access token refreshed")
	return pair.Access, nil
}

// RequestSpec describes an authenticated API call. The body is re-marshaled
// per attempt, so a refreshed retry sends the exact same request; nothing on
// the spec is mutated between attempts.
type RequestSpec struct {
	Method string
	Path   string // joined to the manager's base URL
	Query  url.Values
	Body   any // marshaled to JSON when non-nil
}

// retryBudget is the number of refresh-and-retry cycles an authenticated
// request may spend. Exactly one, so an invalid refresh token can never cause
// a refresh loop.
const retryBudget = 1

// Do performs an authenticated request: it attaches the current access token
// as a bearer credential and, on a 401, refreshes once and retries the same
// request exactly once. A second 401, or a failed refresh, surfaces as
// ErrAuthExpired. The caller owns the response body on success.
func (m *Manager) Do(ctx context.Context, spec RequestSpec) (*http.Response, error) {
	rec, err := m.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if rec == nil {
		return nil, ErrNoSession
	}
	return m.do(ctx, spec, rec.AccessToken, retryBudget)
}

// do sends the request with the given token, spending one unit of budget per
// refresh-and-retry. The budget is threaded explicitly so the retry-once
// invariant is visible in the signature rather than hidden in request state.
func (m *Manager) do(ctx context.Context, spec RequestSpec, access string, budget int) (*http.Response, error) {
	resp, err := m.send(ctx, spec, access)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	_ = resp.Body.Close()

	if budget <= 0 {
		m.logger.Warn("request unauthorized after retry", "method", spec.Method, "path", spec.Path)
		return nil, ErrAuthExpired
	}

	newAccess, err := m.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthExpired, err)
	}
	return m.do(ctx, spec, newAccess, budget-1)
}

// send builds and issues a single attempt.
func (m *Manager) send(ctx context.Context, spec RequestSpec, access string) (*http.Response, error) {
	u := m.base + spec.Path
	if len(spec.Query) > 0 {
		u += "?" + spec.Query.Encode()
	}

	var body io.Reader
	if spec.Body != nil {
		data, err := json.Marshal(spec.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, spec.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+access)
	if spec.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	m.logger.Debug("request completed",
		"method", spec.Method,
		"path", spec.Path,
		"status", resp.StatusCode,
		"request_id", requestID,
	)
	return resp, nil
}

// postJSON issues an unauthenticated POST to a token endpoint.
func (m *Manager) postJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.base+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return m.client.Do(req)
}
