package app

import (
	"context"
	"net/http"
	"testing"

	"github.com/energypatrikhu/obs-ui/internal/domain"
	apperrors "github.com/energypatrikhu/obs-ui/internal/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidgets_DisableThenEnable(t *testing.T) {
	store := newMockWidgetStore()
	pub := &mockPublisher{}
	s := NewWidgetService(store, pub)
	ctx := context.Background()

	changed, err := s.Disable(ctx, "chat")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"chat"}, store.settings.DisabledWidgets)

	changed, err = s.Enable(ctx, "chat")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, store.settings.DisabledWidgets)

	messages := pub.getMessages()
	require.Len(t, messages, 2)
	assert.Equal(t, domain.ChannelWidgetsSettings, messages[0].Channel)
	assert.Equal(t, []string{"chat"}, messages[0].Payload.(domain.WidgetSettings).DisabledWidgets)
}

func TestWidgets_IdempotentToggles(t *testing.T) {
	store := newMockWidgetStore()
	pub := &mockPublisher{}
	s := NewWidgetService(store, pub)
	ctx := context.Background()

	changed, err := s.Enable(ctx, "chat")
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = s.Disable(ctx, "chat")
	require.NoError(t, err)
	changed, err = s.Disable(ctx, "chat")
	require.NoError(t, err)
	assert.False(t, changed)

	assert.Equal(t, 1, store.saves)
	assert.Len(t, pub.getMessages(), 1)
}

func TestWidgets_EmptyNameRejected(t *testing.T) {
	s := NewWidgetService(newMockWidgetStore(), &mockPublisher{})

	for _, toggle := range []func(context.Context, string) (bool, error){s.Enable, s.Disable} {
		_, err := toggle(context.Background(), "")
		appErr, ok := err.(*apperrors.Error)
		require.True(t, ok)
		assert.Equal(t, "No widget provided", appErr.Message)
		assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus())
	}
}

func TestWidgets_SaveSettings(t *testing.T) {
	store := newMockWidgetStore()
	pub := &mockPublisher{}
	s := NewWidgetService(store, pub)

	settings := domain.WidgetSettings{Twitch: domain.TwitchWidgetSettings{ActivityFeed: domain.ActivityFeedSettings{MaxEvents: 12}}}
	require.NoError(t, s.SaveSettings(context.Background(), settings))

	got, err := s.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, got.Twitch.ActivityFeed.MaxEvents)
	assert.NotNil(t, got.DisabledWidgets)
	assert.Len(t, pub.getMessages(), 1)
}

func TestWidgets_SaveSettingsRejectsNegativeMaxEvents(t *testing.T) {
	store := newMockWidgetStore()
	s := NewWidgetService(store, &mockPublisher{})

	settings := domain.DefaultWidgetSettings()
	settings.Twitch.ActivityFeed.MaxEvents = -1
	err := s.SaveSettings(context.Background(), settings)

	appErr, ok := err.(*apperrors.Error)
	require.True(t, ok)
	assert.Equal(t, apperrors.TypeValidation, appErr.Type)
	assert.Zero(t, store.saves)
}

func TestWidgets_StoreErrors(t *testing.T) {
	store := newMockWidgetStore()
	store.saveErr = errBoom
	pub := &mockPublisher{}
	s := NewWidgetService(store, pub)

	_, err := s.Disable(context.Background(), "nowPlaying")
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, pub.getMessages())

	store.getErr = errBoom
	_, err = s.Settings(context.Background())
	appErr, ok := err.(*apperrors.Error)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus())
}
