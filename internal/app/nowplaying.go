package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/energypatrikhu/obs-ui/internal/domain"
	apperrors "github.com/energypatrikhu/obs-ui/internal/platform/errors"
	"github.com/jonboulle/clockwork"
)

const (
	unknown = "Unknown"

	// The overlay shows the card again this long before the track ends.
	reAlertLead = 28200 * time.Millisecond
)

// NowPlayingService keeps the track reported by the browser extension and
// pushes it to the overlay when it changes.
type NowPlayingService struct {
	publisher domain.OverlayPublisher
	clock     clockwork.Clock

	mu      sync.Mutex
	current domain.NowPlaying
}

func NewNowPlayingService(publisher domain.OverlayPublisher, clock clockwork.Clock) *NowPlayingService {
	return &NowPlayingService{
		publisher: publisher,
		clock:     clock,
		current: domain.NowPlaying{
			ReAlerts:  []int64{clock.Now().UnixMilli()},
			Track:     "Connection established",
			Artist:    "App & Extension By EnergyPatrikHU",
			Thumbnail: domain.DefaultImage,
			Favicon:   domain.DefaultImage,
		},
	}
}

func (s *NowPlayingService) Current() domain.NowPlaying {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update replaces the current track. It reports whether the value changed
// and was published.
func (s *NowPlayingService) Update(ctx context.Context, update domain.NowPlayingUpdate) (bool, error) {
	if update.Metadata == nil {
		return false, apperrors.ValidationError("No metadata provided")
	}
	if update.Time == nil || *update.Time == 0 {
		return false, apperrors.ValidationError("No time provided")
	}

	next := s.build(*update.Metadata)

	s.mu.Lock()
	if s.current.Equal(next) {
		s.mu.Unlock()
		return false, nil
	}
	s.current = next
	s.mu.Unlock()

	slog.InfoContext(ctx, "Now playing changed", "track", next.Track, "artist", next.Artist)
	if err := s.publisher.Publish(ctx, domain.ChannelNowPlaying, next); err != nil {
		return true, apperrors.InternalError("failed to publish now playing", err)
	}
	return true, nil
}

func (s *NowPlayingService) build(meta domain.MediaMetadata) domain.NowPlaying {
	now := s.clock.Now()
	lead := time.Duration(meta.Duration*float64(time.Second)) - reAlertLead

	np := domain.NowPlaying{
		ReAlerts:  []int64{now.UnixMilli(), now.Add(lead).UnixMilli()},
		Track:     unknown,
		Artist:    unknown,
		Thumbnail: domain.DefaultImage,
		Favicon:   orDefault(meta.Favicon, domain.DefaultImage),
	}
	if meta.Info != nil {
		np.Track = orDefault(meta.Info.Title, unknown)
		np.Artist = orDefault(meta.Info.Artist, unknown)
		np.Thumbnail = orDefault(meta.Info.Artwork, domain.DefaultImage)
	}
	return np
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
