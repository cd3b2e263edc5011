package model

// Song represents a playable track returned by the Subsonic server.
type Song struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Album    string  `json:"album"`
	CoverArt string  `json:"coverArt"` // Server-side art id, resolved to a URL on demand
	Duration float64 `json:"duration"` // Duration in seconds
	Track    int     `json:"track,omitempty"`
}

// FindSong returns the position of the song with the given id, or -1.
func FindSong(songs []Song, id string) int {
	for i := range songs {
		if songs[i].ID == id {
			return i
		}
	}
	return -1
}
