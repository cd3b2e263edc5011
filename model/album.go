package model

// Album is an album with its songs when fetched in detail.
type Album struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	CoverArt  string `json:"coverArt"`
	Year      int    `json:"year,omitempty"`
	SongCount int    `json:"songCount,omitempty"`
	Songs     []Song `json:"songs,omitempty"` // Only filled by detail lookups
}

// Playlist is a server-side playlist.
type Playlist struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SongCount int    `json:"songCount"`
	CoverArt  string `json:"coverArt"`
	Songs     []Song `json:"songs,omitempty"`
}

// AlbumListType selects the ordering of getAlbumList2.
type AlbumListType string

const (
	AlbumListNewest AlbumListType = "newest" // Recently added
	AlbumListRecent AlbumListType = "recent" // Recently played
)
