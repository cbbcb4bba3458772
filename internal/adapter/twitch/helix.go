package twitch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/energypatrikhu/obs-ui/internal/domain"
	"github.com/energypatrikhu/obs-ui/internal/platform/version"
	"github.com/jonboulle/clockwork"
)

const (
	DefaultHelixURL     = "https://api.twitch.tv/helix"
	defaultRefreshPause = time.Second
	helixTimeout        = 30 * time.Second
)

var ErrUnknownOperation = errors.New("unknown helix operation")

// Authorizer is the part of the token manager the REST client may use.
type Authorizer interface {
	ClientID() string
	AccessToken() string
	HasScope(scope string) bool
	Refresh(ctx context.Context) error
}

// Params holds query or body values. Nil values and nil pointers are dropped
// when encoded; slices become repeated keys.
type Params map[string]any

// Values encodes p as URL values.
func (p Params) Values() url.Values {
	values := url.Values{}
	for key, raw := range p {
		rv, ok := deref(reflect.ValueOf(raw))
		if !ok {
			continue
		}
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
			for i := range rv.Len() {
				if item, ok := deref(rv.Index(i)); ok {
					values.Add(key, fmt.Sprint(item.Interface()))
				}
			}
			continue
		}
		values.Add(key, fmt.Sprint(rv.Interface()))
	}
	return values
}

// Compact returns a copy of p without nil values, descending into nested
// Params and maps.
func (p Params) Compact() map[string]any {
	out := make(map[string]any, len(p))
	for key, raw := range p {
		rv, ok := deref(reflect.ValueOf(raw))
		if !ok {
			continue
		}
		switch nested := raw.(type) {
		case Params:
			out[key] = nested.Compact()
		case map[string]any:
			out[key] = Params(nested).Compact()
		default:
			out[key] = rv.Interface()
		}
	}
	return out
}

func deref(rv reflect.Value) (reflect.Value, bool) {
	for rv.IsValid() {
		switch rv.Kind() {
		case reflect.Pointer, reflect.Interface:
			if rv.IsNil() {
				return rv, false
			}
			rv = rv.Elem()
		case reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return rv, !rv.IsNil()
		default:
			return rv, true
		}
	}
	return rv, false
}

// Request is one Helix call.
type Request struct {
	Method     string
	Path       string
	Query      Params
	Body       any
	Form       bool
	ExpectBody bool
}

// Response is a successful Helix response. Body is nil when the caller did
// not expect one.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return errors.New("response has no body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// APIError is a non-success Helix response.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("twitch api error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("twitch api error (status %d)", e.StatusCode)
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	if len(body) > 0 {
		apiErr.Body = body
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Message = payload.Message
			if apiErr.Message == "" {
				apiErr.Message = payload.Error
			}
		}
	}
	return apiErr
}

// HelixClient performs authenticated calls against the Twitch REST API. On a
// 401 it refreshes the token once and repeats the request.
type HelixClient struct {
	auth         Authorizer
	httpClient   *http.Client
	baseURL      string
	clock        clockwork.Clock
	refreshPause time.Duration
	metrics      Metrics
}

type HelixOption func(*HelixClient)

func WithHelixBaseURL(baseURL string) HelixOption {
	return func(c *HelixClient) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithHelixHTTPClient(httpClient *http.Client) HelixOption {
	return func(c *HelixClient) { c.httpClient = httpClient }
}

func WithHelixClock(clock clockwork.Clock) HelixOption {
	return func(c *HelixClient) { c.clock = clock }
}

// WithRefreshPause sets the pause taken before and after a token refresh.
func WithRefreshPause(d time.Duration) HelixOption {
	return func(c *HelixClient) { c.refreshPause = d }
}

func WithHelixMetrics(m Metrics) HelixOption {
	return func(c *HelixClient) { c.metrics = m }
}

func NewHelixClient(auth Authorizer, opts ...HelixOption) *HelixClient {
	c := &HelixClient{
		auth:         auth,
		httpClient:   &http.Client{Timeout: helixTimeout},
		baseURL:      DefaultHelixURL,
		clock:        clockwork.NewRealClock(),
		refreshPause: defaultRefreshPause,
		metrics:      nopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call looks op up in the capability table and performs it. A missing scope
// fails locally with domain.ErrMissingScope.
func (c *HelixClient) Call(ctx context.Context, op Operation, query Params, body any) (*Response, error) {
	ep, ok := LookupEndpoint(op)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}

	if !ep.Allowed(c.auth.HasScope) {
		slog.ErrorContext(ctx, "Missing scope for Twitch operation", "operation", op, "scopes", ep.Scopes)
		return nil, fmt.Errorf("%s: %w: %s", op, domain.ErrMissingScope, strings.Join(ep.Scopes, " or "))
	}

	return c.Do(ctx, Request{
		Method:     ep.Method,
		Path:       ep.Path,
		Query:      query,
		Body:       body,
		Form:       ep.Form,
		ExpectBody: !ep.NoContent,
	})
}

// CallJSON performs op and decodes the response body into T.
func CallJSON[T any](ctx context.Context, c *HelixClient, op Operation, query Params, body any) (*T, error) {
	resp, err := c.Call(ctx, op, query, body)
	if err != nil {
		return nil, err
	}

	var out T
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}

// Do performs req. A 401 triggers one refresh and one retry; if either the
// refresh or the retry fails with 401 again the error wraps
// domain.ErrReauthRequired.
func (c *HelixClient) Do(ctx context.Context, req Request) (*Response, error) {
	status, body, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		slog.WarnContext(ctx, "Twitch rejected access token, refreshing", "method", req.Method, "path", req.Path)

		if err := c.pause(ctx); err != nil {
			return nil, err
		}
		if err := c.auth.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrReauthRequired, err)
		}
		if err := c.pause(ctx); err != nil {
			return nil, err
		}

		status, body, err = c.send(ctx, req)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			slog.ErrorContext(ctx, "Twitch rejected refreshed token", "method", req.Method, "path", req.Path)
			return nil, fmt.Errorf("%w: %w", domain.ErrReauthRequired, newAPIError(status, body))
		}
	}

	if status != http.StatusOK && status != http.StatusAccepted && status != http.StatusNoContent {
		apiErr := newAPIError(status, body)
		slog.ErrorContext(ctx, "Twitch API request failed", "method", req.Method, "path", req.Path, "status", status, "message", apiErr.Message)
		return nil, apiErr
	}

	resp := &Response{StatusCode: status}
	if req.ExpectBody {
		resp.Body = body
	}
	return resp, nil
}

func (c *HelixClient) pause(ctx context.Context) error {
	if c.refreshPause <= 0 {
		return nil
	}
	select {
	case <-c.clock.After(c.refreshPause):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *HelixClient) send(ctx context.Context, req Request) (int, []byte, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		if encoded := req.Query.Values().Encode(); encoded != "" {
			target += "?" + encoded
		}
	}

	payload, contentType, err := encodeBody(req)
	if err != nil {
		return 0, nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Client-ID", c.auth.ClientID())
	httpReq.Header.Set("Authorization", "Bearer "+c.auth.AccessToken())
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to call twitch api: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read twitch api response: %w", err)
	}

	c.metrics.APIRequest(req.Path, resp.StatusCode)
	return resp.StatusCode, body, nil
}

func encodeBody(req Request) (io.Reader, string, error) {
	if req.Form {
		if req.Body == nil {
			return nil, "application/x-www-form-urlencoded", nil
		}
		params, ok := asParams(req.Body)
		if !ok {
			return nil, "", fmt.Errorf("form body must be Params, got %T", req.Body)
		}
		return strings.NewReader(params.Values().Encode()), "application/x-www-form-urlencoded", nil
	}

	if req.Body == nil {
		return nil, "application/json", nil
	}

	body := req.Body
	if params, ok := asParams(req.Body); ok {
		body = params.Compact()
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode request body: %w", err)
	}
	return bytes.NewReader(encoded), "application/json", nil
}

func asParams(body any) (Params, bool) {
	switch b := body.(type) {
	case Params:
		return b, true
	case map[string]any:
		return Params(b), true
	default:
		return nil, false
	}
}

// Pagination is the Helix cursor object.
type Pagination struct {
	Cursor string `json:"cursor,omitempty"`
}

// DataResponse is the common Helix envelope.
type DataResponse[T any] struct {
	Data       []T         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Total      int         `json:"total,omitempty"`
}

type User struct {
	ID              string    `json:"id"`
	Login           string    `json:"login"`
	DisplayName     string    `json:"display_name"`
	Type            string    `json:"type"`
	BroadcasterType string    `json:"broadcaster_type"`
	Description     string    `json:"description"`
	ProfileImageURL string    `json:"profile_image_url"`
	OfflineImageURL string    `json:"offline_image_url"`
	Email           string    `json:"email,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type ChannelInformation struct {
	BroadcasterID       string   `json:"broadcaster_id"`
	BroadcasterLogin    string   `json:"broadcaster_login"`
	BroadcasterName     string   `json:"broadcaster_name"`
	BroadcasterLanguage string   `json:"broadcaster_language"`
	GameID              string   `json:"game_id"`
	GameName            string   `json:"game_name"`
	Title               string   `json:"title"`
	Delay               int      `json:"delay"`
	Tags                []string `json:"tags"`
	IsBrandedContent    bool     `json:"is_branded_content"`
}

// GetUsers returns the users with the given ids or logins. With neither, it
// returns the owner of the access token.
func (c *HelixClient) GetUsers(ctx context.Context, ids, logins []string) (*DataResponse[User], error) {
	query := Params{}
	if len(ids) > 0 {
		query["id"] = ids
	}
	if len(logins) > 0 {
		query["login"] = logins
	}
	return CallJSON[DataResponse[User]](ctx, c, OpGetUsers, query, nil)
}

func (c *HelixClient) GetChannelInformation(ctx context.Context, broadcasterIDs ...string) (*DataResponse[ChannelInformation], error) {
	return CallJSON[DataResponse[ChannelInformation]](ctx, c, OpGetChannelInformation, Params{"broadcaster_id": broadcasterIDs}, nil)
}

// CurrentUser returns the owner of the access token.
func (c *HelixClient) CurrentUser(ctx context.Context) (*User, error) {
	users, err := c.GetUsers(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	if len(users.Data) == 0 {
		return nil, domain.ErrNotAuthenticated
	}
	return &users.Data[0], nil
}
