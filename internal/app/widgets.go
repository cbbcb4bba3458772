package app

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/energypatrikhu/obs-ui/internal/domain"
	apperrors "github.com/energypatrikhu/obs-ui/internal/platform/errors"
)

// WidgetService edits the overlay widget settings and pushes every change
// to the overlay.
type WidgetService struct {
	store     domain.WidgetStore
	publisher domain.OverlayPublisher

	// serialises read-modify-write cycles on the store
	mu sync.Mutex
}

func NewWidgetService(store domain.WidgetStore, publisher domain.OverlayPublisher) *WidgetService {
	return &WidgetService{store: store, publisher: publisher}
}

func (s *WidgetService) Settings(ctx context.Context) (domain.WidgetSettings, error) {
	settings, err := s.store.GetWidgetSettings(ctx)
	if err != nil {
		return domain.WidgetSettings{}, apperrors.InternalError("failed to load widget settings", err)
	}
	return settings, nil
}

// Enable removes widget from the disabled list. It reports whether the
// settings changed.
func (s *WidgetService) Enable(ctx context.Context, widget string) (bool, error) {
	return s.toggle(ctx, widget, false)
}

// Disable adds widget to the disabled list. It reports whether the settings
// changed.
func (s *WidgetService) Disable(ctx context.Context, widget string) (bool, error) {
	return s.toggle(ctx, widget, true)
}

func (s *WidgetService) toggle(ctx context.Context, widget string, disable bool) (bool, error) {
	if widget == "" {
		return false, apperrors.ValidationError("No widget provided")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.Settings(ctx)
	if err != nil {
		return false, err
	}

	if settings.IsDisabled(widget) == disable {
		slog.InfoContext(ctx, "Widget already in requested state", "widget", widget, "disabled", disable)
		return false, nil
	}

	if disable {
		settings.DisabledWidgets = append(settings.DisabledWidgets, widget)
	} else {
		settings.DisabledWidgets = slices.DeleteFunc(settings.DisabledWidgets, func(w string) bool { return w == widget })
	}

	if err := s.save(ctx, settings); err != nil {
		return false, err
	}
	slog.InfoContext(ctx, "Widget toggled", "widget", widget, "disabled", disable)
	return true, nil
}

// SaveSettings replaces the stored settings.
func (s *WidgetService) SaveSettings(ctx context.Context, settings domain.WidgetSettings) error {
	if settings.DisabledWidgets == nil {
		settings.DisabledWidgets = []string{}
	}
	if settings.Twitch.ActivityFeed.MaxEvents < 0 {
		return apperrors.ValidationError("maxEvents must not be negative").
			WithField("maxEvents", settings.Twitch.ActivityFeed.MaxEvents)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, settings)
}

func (s *WidgetService) save(ctx context.Context, settings domain.WidgetSettings) error {
	if err := s.store.SaveWidgetSettings(ctx, settings); err != nil {
		return apperrors.InternalError("failed to save widget settings", err)
	}
	if err := s.publisher.Publish(ctx, domain.ChannelWidgetsSettings, settings); err != nil {
		return apperrors.InternalError("failed to publish widget settings", err)
	}
	return nil
}
