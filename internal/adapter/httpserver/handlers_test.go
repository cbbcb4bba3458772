package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/energypatrikhu/obs-ui/internal/domain"
	apperrors "github.com/energypatrikhu/obs-ui/internal/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestGetNowPlaying(t *testing.T) {
	np := &mockNowPlaying{current: domain.NowPlaying{
		ReAlerts:  []int64{1700000000000},
		Track:     "Connection established",
		Artist:    "App & Extension By EnergyPatrikHU",
		Thumbnail: domain.DefaultImage,
		Favicon:   domain.DefaultImage,
	}}
	srv := newTestServer(t, Handlers{NowPlaying: np})

	rec := serve(t, srv, http.MethodGet, "/nowPlaying", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var got domain.NowPlaying
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, np.current, got)
}

func TestPostNowPlaying(t *testing.T) {
	np := &mockNowPlaying{}
	srv := newTestServer(t, Handlers{NowPlaying: np})

	body := `{"metadata":{"info":{"title":"Song","artist":"Band","artwork":"https://img/x.jpg"},"duration":200,"favicon":"https://f/icon.ico"},"time":12.5}`
	rec := serve(t, srv, http.MethodPost, "/nowPlaying", body)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, np.updates, 1)
	require.NotNil(t, np.updates[0].Metadata)
	assert.Equal(t, "Song", np.updates[0].Metadata.Info.Title)
	assert.InDelta(t, 200, np.updates[0].Metadata.Duration, 0)
	assert.InDelta(t, 12.5, *np.updates[0].Time, 0)
}

func TestPostNowPlaying_ValidationError(t *testing.T) {
	np := &mockNowPlaying{updateFn: func(_ context.Context, u domain.NowPlayingUpdate) (bool, error) {
		return false, apperrors.ValidationError("No metadata provided")
	}}
	srv := newTestServer(t, Handlers{NowPlaying: np})

	rec := serve(t, srv, http.MethodPost, "/nowPlaying", `{"time":1}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No metadata provided", decodeError(t, rec).Error)
}

func TestPostNowPlaying_MalformedBody(t *testing.T) {
	np := &mockNowPlaying{}
	srv := newTestServer(t, Handlers{NowPlaying: np})

	rec := serve(t, srv, http.MethodPost, "/nowPlaying", `{"metadata":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, np.updates)
}

func TestWidgetToggles(t *testing.T) {
	widgets := &mockWidgets{}
	srv := newTestServer(t, Handlers{Widgets: widgets})

	rec := serve(t, srv, http.MethodPost, "/widgets/disable", `{"widget":"chat"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = serve(t, srv, http.MethodPost, "/widgets/enable", `{"widget":"nowPlaying"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	assert.Equal(t, []string{"chat"}, widgets.disabled)
	assert.Equal(t, []string{"nowPlaying"}, widgets.enabled)
}

func TestWidgetToggle_FormBody(t *testing.T) {
	widgets := &mockWidgets{}
	srv := newTestServer(t, Handlers{Widgets: widgets})

	req := httptest.NewRequest(http.MethodPost, "/widgets/disable", strings.NewReader("widget=activityFeed"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"activityFeed"}, widgets.disabled)
}

func TestWidgetToggle_MissingWidget(t *testing.T) {
	widgets := &mockWidgets{toggleErr: apperrors.ValidationError("No widget provided")}
	srv := newTestServer(t, Handlers{Widgets: widgets})

	rec := serve(t, srv, http.MethodPost, "/widgets/enable", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No widget provided", decodeError(t, rec).Error)
}

func TestWidgetSettings(t *testing.T) {
	widgets := &mockWidgets{settings: domain.WidgetSettings{
		DisabledWidgets: []string{"chat"},
		Twitch:          domain.TwitchWidgetSettings{ActivityFeed: domain.ActivityFeedSettings{MaxEvents: 7}},
	}}
	srv := newTestServer(t, Handlers{Widgets: widgets})

	rec := serve(t, srv, http.MethodGet, "/widgets/settings", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"disabledWidgets":["chat"],"twitch":{"activityFeed":{"maxEvents":7}}}`, rec.Body.String())

	rec = serve(t, srv, http.MethodPost, "/widgets/settings", `{"disabledWidgets":[],"twitch":{"activityFeed":{"maxEvents":3}}}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, widgets.saved, 1)
	assert.Equal(t, 3, widgets.saved[0].Twitch.ActivityFeed.MaxEvents)
}

func TestWidgetSettings_SaveFails(t *testing.T) {
	widgets := &mockWidgets{saveErr: apperrors.InternalError("failed to save widget settings", errBoom)}
	srv := newTestServer(t, Handlers{Widgets: widgets})

	rec := serve(t, srv, http.MethodPost, "/widgets/settings", `{"disabledWidgets":[]}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to save widget settings", decodeError(t, rec).Error)
}
