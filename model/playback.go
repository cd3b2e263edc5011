package model

// PlaybackStatus is the per-song transport state.
type PlaybackStatus string

const (
	StatusIdle    PlaybackStatus = "idle"
	StatusLoading PlaybackStatus = "loading"
	StatusPlaying PlaybackStatus = "playing"
	StatusPaused  PlaybackStatus = "paused"
)

// PlaybackState is a snapshot of the controller state handed to observers.
type PlaybackState struct {
	CurrentSong *Song          `json:"currentSong,omitempty"`
	IsPlaying   bool           `json:"isPlaying"`
	Position    float64        `json:"position"`   // Seconds into the current song
	IsExpanded  bool           `json:"isExpanded"` // Full player surface owns transport input
	Status      PlaybackStatus `json:"status"`
	ActiveLyric int            `json:"activeLyric"` // -1 when no line is active
	QueueLength int            `json:"queueLength"`
}

// HasSong reports whether a song is loaded.
func (s PlaybackState) HasSong() bool {
	return s.CurrentSong != nil
}

// NowPlaying is the metadata published to the platform media session.
type NowPlaying struct {
	SongID    string  `json:"songId"`
	Title     string  `json:"title"`
	Artist    string  `json:"artist"`
	Album     string  `json:"album"`
	Artwork   string  `json:"artwork"`
	IsPlaying bool    `json:"isPlaying"`
	Position  float64 `json:"position"`
}
