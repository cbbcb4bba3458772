package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/energypatrikhu/obs-ui/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultIdentityURL = "https://id.twitch.tv"
	tokenTimeout       = 10 * time.Second
)

// TokenError is returned when Twitch refuses to issue tokens. Revoked is set
// when the grant itself was rejected and the user has to authorize again.
type TokenError struct {
	Revoked bool
	Err     error
}

func (e *TokenError) Error() string {
	if e.Revoked {
		return fmt.Sprintf("token revoked: %v", e.Err)
	}
	return fmt.Sprintf("token request failed: %v", e.Err)
}

func (e *TokenError) Unwrap() error { return e.Err }

func newTokenError(err error) *TokenError {
	if retrieveErr, ok := errors.AsType[*oauth2.RetrieveError](err); ok && retrieveErr.Response != nil {
		status := retrieveErr.Response.StatusCode
		return &TokenError{Revoked: status == http.StatusBadRequest || status == http.StatusUnauthorized, Err: err}
	}
	return &TokenError{Err: err}
}

type tokenState int

const (
	tokenIdle tokenState = iota
	tokenWaitingForCode
	tokenReady
)

// TokenManager owns the credential record. It obtains, validates and
// refreshes tokens and persists every change before returning. Other
// components only see it through its accessors.
type TokenManager struct {
	store       domain.CredentialStore
	events      *Dispatcher
	identityURL string
	redirectURL string
	httpClient  *http.Client
	metrics     Metrics
	flights     singleflight.Group
	noWait      bool

	mu     sync.RWMutex
	creds  domain.Credentials
	loaded bool
	state  tokenState
	// exchanged is the code the current token pair was obtained with.
	exchanged string

	codeReceived chan struct{}
	readyOnce    sync.Once
}

type TokenOption func(*TokenManager)

// WithIdentityURL points the token, validate and authorize endpoints at baseURL.
func WithIdentityURL(baseURL string) TokenOption {
	return func(m *TokenManager) { m.identityURL = strings.TrimRight(baseURL, "/") }
}

func WithTokenHTTPClient(httpClient *http.Client) TokenOption {
	return func(m *TokenManager) { m.httpClient = httpClient }
}

func WithTokenMetrics(metrics Metrics) TokenOption {
	return func(m *TokenManager) { m.metrics = metrics }
}

// WithoutWaitingForCode is for non-interactive callers: Initialize fails
// with domain.ErrNotAuthenticated where it would wait for SetAuthCode.
func WithoutWaitingForCode() TokenOption {
	return func(m *TokenManager) { m.noWait = true }
}

func NewTokenManager(store domain.CredentialStore, events *Dispatcher, redirectURL string, opts ...TokenOption) *TokenManager {
	m := &TokenManager{
		store:        store,
		events:       events,
		identityURL:  DefaultIdentityURL,
		redirectURL:  redirectURL,
		httpClient:   &http.Client{Timeout: tokenTimeout},
		metrics:      nopMetrics{},
		codeReceived: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize loads the credentials and makes sure a valid token exists.
// Without an authorization code it blocks until SetAuthCode delivers one,
// and it blocks the same way when Twitch has revoked the stored grant.
// Ready is emitted once, after the first successful initialization.
func (m *TokenManager) Initialize(ctx context.Context) error {
	slog.InfoContext(ctx, "Initializing Twitch API")

	if err := m.load(ctx); err != nil {
		return err
	}

	creds := m.snapshot()
	if creds.ClientID == "" || creds.ClientSecret == "" {
		slog.ErrorContext(ctx, "Failed to initialize Twitch API, missing client credentials")
		return domain.ErrMissingClientCredentials
	}
	if len(creds.Scope) == 0 {
		slog.ErrorContext(ctx, "Failed to initialize Twitch API, missing scopes")
		return domain.ErrMissingScopes
	}

	if creds.Code == "" {
		slog.WarnContext(ctx, "Not authenticated, open the authorize URL in a browser", "url", m.AuthorizeURL(""))
		if err := m.waitForCode(ctx, ""); err != nil {
			return err
		}
	}

	codeTried := m.AccessToken() == "" || m.codePending()
	err := m.EnsureTokens(ctx)
	if isRevoked(err) {
		err = m.reauthorize(ctx, !codeTried)
	}
	if err != nil {
		m.setState(tokenIdle)
		slog.ErrorContext(ctx, "Failed to obtain Twitch tokens", "error", err)
		return err
	}

	m.markReady(ctx)
	return nil
}

// reauthorize recovers from a revoked grant by waiting for a new code. With
// tryStored the stored code is exchanged first: it may have arrived while no
// manager was running to exchange it.
func (m *TokenManager) reauthorize(ctx context.Context, tryStored bool) error {
	rejected := m.snapshot().Code
	if tryStored && rejected != "" {
		err := m.exchangeCode(ctx)
		if !isRevoked(err) {
			return err
		}
	}

	for {
		slog.WarnContext(ctx, "Twitch authorization was revoked, open the authorize URL in a browser", "url", m.AuthorizeURL(""))
		if err := m.waitForCode(ctx, rejected); err != nil {
			return err
		}

		err := m.exchangeCode(ctx)
		if m.Ready() {
			return nil
		}
		if !isRevoked(err) {
			return err
		}
		rejected = m.snapshot().Code
	}
}

// waitForCode blocks until a code other than stale has been stored.
func (m *TokenManager) waitForCode(ctx context.Context, stale string) error {
	if m.noWait {
		return domain.ErrNotAuthenticated
	}
	m.setState(tokenWaitingForCode)
	for {
		if code := m.snapshot().Code; code != "" && code != stale {
			m.setState(tokenIdle)
			return nil
		}
		select {
		case <-m.codeReceived:
		case <-ctx.Done():
			m.setState(tokenIdle)
			return ctx.Err()
		}
	}
}

func (m *TokenManager) markReady(ctx context.Context) {
	m.setState(tokenReady)
	slog.InfoContext(ctx, "Twitch API initialized")
	m.readyOnce.Do(func() { emit(m.events, Ready, struct{}{}) })
}

func isRevoked(err error) bool {
	tokenErr, ok := errors.AsType[*TokenError](err)
	return ok && tokenErr.Revoked
}

// EnsureTokens exchanges the authorization code when there is no access
// token yet or a newer code has been stored, and otherwise validates the
// token and refreshes it when Twitch no longer accepts it.
func (m *TokenManager) EnsureTokens(ctx context.Context) error {
	if m.AccessToken() == "" || m.codePending() {
		return m.exchangeCode(ctx)
	}

	valid, err := m.validate(ctx)
	switch {
	case err != nil:
		slog.WarnContext(ctx, "Failed to validate token, refreshing", "error", err)
	case !valid:
		slog.WarnContext(ctx, "Token is invalid, refreshing")
	default:
		slog.DebugContext(ctx, "Token is valid")
		return nil
	}

	return m.Refresh(ctx)
}

// Refresh trades the refresh token for a new token pair. Concurrent callers
// share one request, which outlives any single caller giving up. Failures
// are returned as *TokenError and never retried.
func (m *TokenManager) Refresh(ctx context.Context) error {
	return m.shared(ctx, "refresh", m.refresh)
}

func (m *TokenManager) shared(ctx context.Context, key string, fn func(context.Context) error) error {
	results := m.flights.DoChan(key, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tokenTimeout)
		defer cancel()
		return nil, fn(flightCtx)
	})

	select {
	case res := <-results:
		if res.Shared {
			slog.DebugContext(ctx, "Joined in-flight token request", "request", key)
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *TokenManager) refresh(ctx context.Context) error {
	refreshToken := m.snapshot().RefreshToken
	if refreshToken == "" {
		m.metrics.TokenRefresh(false)
		return &TokenError{Err: domain.ErrNotAuthenticated}
	}

	slog.DebugContext(ctx, "Refreshing tokens")
	source := m.oauthConfig().TokenSource(m.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		m.metrics.TokenRefresh(false)
		slog.ErrorContext(ctx, "Failed to refresh tokens", "error", err)
		return newTokenError(err)
	}

	if err := m.mergeTokens(ctx, token, ""); err != nil {
		m.metrics.TokenRefresh(false)
		return err
	}

	m.metrics.TokenRefresh(true)
	slog.InfoContext(ctx, "Tokens refreshed")
	return nil
}

// SetAuthCode stores the code delivered by the OAuth redirect. It releases a
// pending Initialize. Otherwise the code is exchanged right away, and a
// manager whose initialization failed becomes ready once that succeeds.
func (m *TokenManager) SetAuthCode(ctx context.Context, code string) error {
	if code == "" {
		return errors.New("authorization code is empty")
	}
	if err := m.load(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	next := m.creds.Clone()
	next.Code = code
	if err := m.store.SaveCredentials(ctx, next); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to save authorization code: %w", err)
	}
	m.creds = next
	state := m.state
	m.mu.Unlock()

	slog.InfoContext(ctx, "Twitch authorization code set")
	if state == tokenWaitingForCode {
		select {
		case m.codeReceived <- struct{}{}:
		default:
		}
		return nil
	}

	if err := m.exchangeCode(ctx); err != nil {
		return err
	}
	if state != tokenReady {
		m.markReady(ctx)
	}
	return nil
}

// AuthorizeURL is the Twitch consent page for the configured scopes.
func (m *TokenManager) AuthorizeURL(state string) string {
	return m.oauthConfig().AuthCodeURL(state)
}

func (m *TokenManager) ClientID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.ClientID
}

func (m *TokenManager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.AccessToken
}

func (m *TokenManager) HasScope(scope string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Contains(m.creds.Scope, scope)
}

func (m *TokenManager) Scopes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.creds.Scope)
}

// Ready reports whether initialization has completed.
func (m *TokenManager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == tokenReady
}

func (m *TokenManager) load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded {
		return nil
	}

	creds, err := m.store.GetCredentials(ctx)
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	m.creds = creds.Clone()
	if creds.AccessToken != "" {
		m.exchanged = creds.Code
	}
	m.loaded = true
	return nil
}

func (m *TokenManager) snapshot() domain.Credentials {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.Clone()
}

func (m *TokenManager) setState(s tokenState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// codePending reports whether a code was stored after the current tokens
// were issued.
func (m *TokenManager) codePending() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.Code != "" && m.creds.Code != m.exchanged
}

func (m *TokenManager) exchangeCode(ctx context.Context) error {
	return m.shared(ctx, "exchange", m.exchange)
}

func (m *TokenManager) exchange(ctx context.Context) error {
	code := m.snapshot().Code
	if code == "" {
		return &TokenError{Err: domain.ErrNotAuthenticated}
	}

	slog.DebugContext(ctx, "Requesting tokens")
	token, err := m.oauthConfig().Exchange(m.oauthContext(ctx), code)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to get tokens", "error", err)
		return newTokenError(err)
	}

	if err := m.mergeTokens(ctx, token, code); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Tokens received")
	return nil
}

// mergeTokens replaces both tokens and persists the record as one step.
// code is the authorization code the pair came from, empty for a refresh.
func (m *TokenManager) mergeTokens(ctx context.Context, token *oauth2.Token, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.creds.Clone()
	next.AccessToken = token.AccessToken
	next.RefreshToken = token.RefreshToken

	if err := m.store.SaveCredentials(ctx, next); err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}
	m.creds = next
	if code != "" {
		m.exchanged = code
	}
	return nil
}

type validateResponse struct {
	ClientID  string   `json:"client_id"`
	Login     string   `json:"login"`
	UserID    string   `json:"user_id"`
	Scopes    []string `json:"scopes"`
	ExpiresIn int      `json:"expires_in"`
}

// validate reports false when Twitch answers 401 and an error for anything
// it cannot interpret.
func (m *TokenManager) validate(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.identityURL+"/oauth2/validate", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create validate request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+m.AccessToken())

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to validate token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read validate response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var info validateResponse
		if err := json.Unmarshal(body, &info); err == nil {
			slog.DebugContext(ctx, "Validated token", "login", info.Login, "expires_in", info.ExpiresIn)
		}
		return true, nil
	case http.StatusUnauthorized:
		return false, nil
	default:
		return false, fmt.Errorf("validate returned status %d", resp.StatusCode)
	}
}

func (m *TokenManager) oauthConfig() *oauth2.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &oauth2.Config{
		ClientID:     m.creds.ClientID,
		ClientSecret: m.creds.ClientSecret,
		RedirectURL:  m.redirectURL,
		Scopes:       slices.Clone(m.creds.Scope),
		Endpoint: oauth2.Endpoint{
			AuthURL:   m.identityURL + "/oauth2/authorize",
			TokenURL:  m.identityURL + "/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (m *TokenManager) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}
