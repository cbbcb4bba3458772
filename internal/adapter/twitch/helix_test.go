package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/energypatrikhu/obs-ui/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHelix(t *testing.T, auth Authorizer, handler http.HandlerFunc, opts ...HelixOption) *HelixClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts = append([]HelixOption{WithHelixBaseURL(srv.URL), WithRefreshPause(0)}, opts...)
	return NewHelixClient(auth, opts...)
}

func TestCall_MissingScopeSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	auth := newFakeAuthorizer("token", "user:read:chat")
	c := newTestHelix(t, auth, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	for _, op := range []Operation{OpStartCommercial, OpGetPolls, OpBanUser, OpCreateEventSubSubscription} {
		resp, err := c.Call(context.Background(), op, Params{"broadcaster_id": "1"}, nil)
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, domain.ErrMissingScope, op)
		assert.Contains(t, err.Error(), string(op))
	}

	assert.Zero(t, hits.Load())
}

func TestCall_AnyOfScopeIsEnough(t *testing.T) {
	auth := newFakeAuthorizer("token", "channel:manage:polls")
	c := newTestHelix(t, auth, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/polls", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	_, err := c.Call(context.Background(), OpGetPolls, Params{"broadcaster_id": "1"}, nil)
	require.NoError(t, err)
}

func TestCall_UnknownOperation(t *testing.T) {
	c := newTestHelix(t, newFakeAuthorizer("token"), func(w http.ResponseWriter, r *http.Request) {})

	_, err := c.Call(context.Background(), Operation("doesNotExist"), nil, nil)
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestDo_RefreshesOnceOn401(t *testing.T) {
	var calls atomic.Int32
	auth := newFakeAuthorizer("old-token")
	auth.refreshFn = func(context.Context) error {
		auth.token.Store("new-token")
		return nil
	}

	c := newTestHelix(t, auth, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer new-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized","status":401,"message":"Invalid OAuth token"}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"1"}]}`))
	})

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/users", ExpectBody: true})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data":[{"id":"1"}]}`, string(resp.Body))
	assert.Equal(t, int32(1), auth.refreshes.Load())
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_RetrySendsIdenticalRequest(t *testing.T) {
	type seen struct {
		method, query, body, contentType string
	}
	var requests []seen
	auth := newFakeAuthorizer("token")

	c := newTestHelix(t, auth, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, seen{r.Method, r.URL.RawQuery, string(body), r.Header.Get("Content-Type")})
		if len(requests) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	_, err := c.Do(context.Background(), Request{
		Method: http.MethodPatch,
		Path:   "/channels",
		Query:  Params{"broadcaster_id": "42"},
		Body:   Params{"title": "Hello"},
	})
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, requests[0], requests[1])
	assert.Equal(t, "broadcaster_id=42", requests[1].query)
}

func TestDo_RefreshFailureRequiresReauth(t *testing.T) {
	var calls atomic.Int32
	auth := newFakeAuthorizer("token")
	refreshErr := &TokenError{Revoked: true, Err: errors.New("invalid refresh token")}
	auth.refreshFn = func(context.Context) error { return refreshErr }

	c := newTestHelix(t, auth, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/users", ExpectBody: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrReauthRequired)
	assert.ErrorIs(t, err, refreshErr)
	assert.Equal(t, int32(1), calls.Load(), "no retry after a failed refresh")
}

func TestDo_SecondUnauthorizedRequiresReauth(t *testing.T) {
	var calls atomic.Int32
	auth := newFakeAuthorizer("token")

	c := newTestHelix(t, auth, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized","status":401,"message":"Invalid OAuth token"}`))
	})

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/users", ExpectBody: true})
	assert.ErrorIs(t, err, domain.ErrReauthRequired)

	apiErr, ok := errors.AsType[*APIError](err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid OAuth token", apiErr.Message)

	assert.Equal(t, int32(2), calls.Load(), "exactly one retry")
	assert.Equal(t, int32(1), auth.refreshes.Load())
}

func TestDo_PausesAroundRefresh(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var calls atomic.Int32
	auth := newFakeAuthorizer("token")

	c := newTestHelix(t, auth, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}, WithHelixClock(clock), WithRefreshPause(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/users"})
		done <- err
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Zero(t, auth.refreshes.Load(), "refresh waits for the first pause")
	clock.Advance(time.Second)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, int32(1), auth.refreshes.Load())
	assert.Equal(t, int32(1), calls.Load(), "retry waits for the second pause")
	clock.Advance(time.Second)

	require.NoError(t, <-done)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_ErrorStatusReturnsAPIError(t *testing.T) {
	c := newTestHelix(t, newFakeAuthorizer("token"), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Bad Request","status":400,"message":"Missing required parameter \"broadcaster_id\""}`))
	})

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/channels", ExpectBody: true})

	apiErr, ok := errors.AsType[*APIError](err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, `Missing required parameter "broadcaster_id"`, apiErr.Message)
	assert.NotEmpty(t, apiErr.Body)
}

func TestDo_SuccessStatuses(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusAccepted, http.StatusNoContent} {
		c := newTestHelix(t, newFakeAuthorizer("token"), func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		resp, err := c.Do(context.Background(), Request{Method: http.MethodDelete, Path: "/eventsub/subscriptions"})
		require.NoError(t, err, status)
		assert.Equal(t, status, resp.StatusCode)
		assert.Nil(t, resp.Body)
	}
}

func TestDo_Headers(t *testing.T) {
	auth := newFakeAuthorizer("abc")
	c := newTestHelix(t, auth, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-client", r.Header.Get("Client-ID"))
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "hello", r.PostForm.Get("message"))
		w.WriteHeader(http.StatusNoContent)
	})

	_, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/whispers",
		Body:   Params{"message": "hello", "skip": nil},
		Form:   true,
	})
	require.NoError(t, err)
}

func TestCall_FormEndpoint(t *testing.T) {
	const op Operation = "sendFormMessage"
	endpoints[op] = Endpoint{Method: http.MethodPost, Path: "/whispers", NoContent: true, Form: true}
	t.Cleanup(func() { delete(endpoints, op) })

	c := newTestHelix(t, newFakeAuthorizer("abc"), func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "hello", r.PostForm.Get("message"))
		w.WriteHeader(http.StatusNoContent)
	})

	_, err := c.Call(context.Background(), op, nil, map[string]any{"message": "hello"})
	require.NoError(t, err)
}

func TestParams_StripsNilValues(t *testing.T) {
	var missing *string
	first := 20
	query := Params{
		"broadcaster_id": "44322889",
		"after":          missing,
		"first":          &first,
		"nothing":        nil,
		"id":             []string{"a", "b"},
		"empty":          []string(nil),
	}

	values := query.Values()
	assert.Equal(t, "44322889", values.Get("broadcaster_id"))
	assert.Equal(t, "20", values.Get("first"))
	assert.Equal(t, []string{"a", "b"}, values["id"])
	assert.NotContains(t, values, "after")
	assert.NotContains(t, values, "nothing")
	assert.NotContains(t, values, "empty")
}

func TestDo_BodyStripsNilValues(t *testing.T) {
	var raw map[string]any
	c := newTestHelix(t, newFakeAuthorizer("token"), func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	var prompt *string
	_, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/channel_points/custom_rewards",
		Query:  Params{"broadcaster_id": "1", "unused": nil},
		Body: Params{
			"title":  "Hydrate",
			"cost":   50,
			"prompt": prompt,
			"nested": map[string]any{"keep": true, "drop": nil},
		},
		ExpectBody: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Hydrate", raw["title"])
	assert.NotContains(t, raw, "prompt")
	assert.Equal(t, map[string]any{"keep": true}, raw["nested"])
}

func TestGetChannelInformation_PublicEndpoint(t *testing.T) {
	body := `{"data":[{"broadcaster_id":"44322889","broadcaster_login":"dallas","broadcaster_name":"Dallas","broadcaster_language":"en","game_id":"509670","game_name":"Science & Technology","title":"TwitchDev Monthly Update","delay":0,"tags":["DevsInTheKnow"],"is_branded_content":false}]}`
	c := newTestHelix(t, newFakeAuthorizer("token"), func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels", r.URL.Path)
		assert.Equal(t, "44322889", r.URL.Query().Get("broadcaster_id"))
		_, _ = w.Write([]byte(body))
	})

	resp, err := c.Call(context.Background(), OpGetChannelInformation, Params{"broadcaster_id": "44322889"}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(resp.Body))

	info, err := c.GetChannelInformation(context.Background(), "44322889")
	require.NoError(t, err)
	require.Len(t, info.Data, 1)
	assert.Equal(t, "TwitchDev Monthly Update", info.Data[0].Title)
	assert.Equal(t, []string{"DevsInTheKnow"}, info.Data[0].Tags)
}

func TestCurrentUser(t *testing.T) {
	c := newTestHelix(t, newFakeAuthorizer("token"), func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"data":[{"id":"141981764","login":"twitchdev","display_name":"TwitchDev"}]}`))
	})

	user, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "141981764", user.ID)
	assert.Equal(t, "twitchdev", user.Login)
}

func TestCurrentUser_Empty(t *testing.T) {
	c := newTestHelix(t, newFakeAuthorizer("token"), func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	_, err := c.CurrentUser(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}
