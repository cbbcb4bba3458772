package domain

// DefaultImage is shown when a track has no artwork or favicon.
const DefaultImage = "/images/default.png"

// NowPlaying is the media state pushed to the overlay. ReAlerts holds unix
// millisecond timestamps at which the overlay shows the track card again.
type NowPlaying struct {
	ReAlerts  []int64 `json:"reAlerts"`
	Track     string  `json:"track"`
	Artist    string  `json:"artist"`
	Thumbnail string  `json:"thumbnail"`
	Favicon   string  `json:"favicon,omitempty"`
}

// Equal compares every field, including the re-alert schedule.
func (n NowPlaying) Equal(other NowPlaying) bool {
	if n.Track != other.Track || n.Artist != other.Artist || n.Thumbnail != other.Thumbnail || n.Favicon != other.Favicon {
		return false
	}
	if len(n.ReAlerts) != len(other.ReAlerts) {
		return false
	}
	for i := range n.ReAlerts {
		if n.ReAlerts[i] != other.ReAlerts[i] {
			return false
		}
	}
	return true
}

type MediaInfo struct {
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Artwork string `json:"artwork"`
}

type MediaMetadata struct {
	Info     *MediaInfo `json:"info"`
	Duration float64    `json:"duration"`
	Favicon  string     `json:"favicon"`
}

// NowPlayingUpdate is what the browser extension posts. Time is the
// extension's playback timestamp and is only checked for presence.
type NowPlayingUpdate struct {
	Metadata *MediaMetadata `json:"metadata"`
	Time     *float64       `json:"time"`
}
