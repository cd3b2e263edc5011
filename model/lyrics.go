package model

// Lyrics is raw lyric content, either LRC or plain text.
type Lyrics struct {
	Artist  string `json:"artist,omitempty"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// LyricLine is one display line. Time is -1 for untimed lines.
type LyricLine struct {
	Time float64 `json:"time"`
	Text string  `json:"text"`
}

// Untimed marks a line without a playback offset.
const Untimed = -1.0
