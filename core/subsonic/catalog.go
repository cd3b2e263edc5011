package subsonic

import (
	"context"
	"strconv"

	"GeminiStream/logger"
	"GeminiStream/model"
)

func toSong(s songDTO) model.Song {
	cover := s.CoverArt
	if cover == "" {
		cover = s.ID
	}
	return model.Song{
		ID:       s.ID,
		Title:    s.Title,
		Artist:   s.Artist,
		Album:    s.Album,
		CoverArt: cover,
		Duration: s.Duration,
		Track:    s.Track,
	}
}

func toSongs(in []songDTO) []model.Song {
	songs := make([]model.Song, 0, len(in))
	for _, s := range in {
		songs = append(songs, toSong(s))
	}
	return songs
}

func albumTitle(a albumDTO) string {
	if a.Title != "" {
		return a.Title
	}
	return a.Name
}

func toAlbum(a albumDTO) model.Album {
	cover := a.CoverArt
	if cover == "" {
		cover = a.ID
	}
	return model.Album{
		ID:        a.ID,
		Title:     albumTitle(a),
		Artist:    a.Artist,
		CoverArt:  cover,
		Year:      a.Year,
		SongCount: a.SongCount,
	}
}

func toPlaylist(p playlistDTO) model.Playlist {
	return model.Playlist{
		ID:        p.ID,
		Name:      p.Name,
		SongCount: p.SongCount,
		CoverArt:  p.CoverArt,
	}
}

// Ping checks that the server answers with the given credentials.
func (c *Client) Ping(ctx context.Context, creds model.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	_, err := c.fetch(ctx, "ping", RestURL(creds, "ping"))
	return err
}

// GetRandomSongs returns random songs, or an empty list on failure.
func (c *Client) GetRandomSongs(ctx context.Context, creds model.Credentials, size int) []model.Song {
	if size <= 0 {
		size = 20
	}
	env, err := c.fetch(ctx, "getRandomSongs", RestURL(creds, "getRandomSongs", Param{"size", strconv.Itoa(size)}))
	if err != nil {
		logger.Error("[Subsonic/getRandomSongs] failed", logger.ErrorField(err))
		return []model.Song{}
	}
	if env.Response.RandomSongs == nil {
		return []model.Song{}
	}
	return toSongs(env.Response.RandomSongs.Song)
}

// GetRecentAlbums lists albums by type: newest is recently added, recent is
// recently played. Failures yield an empty list.
func (c *Client) GetRecentAlbums(ctx context.Context, creds model.Credentials, size int, listType model.AlbumListType) []model.Album {
	if size <= 0 {
		size = 50
	}
	if listType == "" {
		listType = model.AlbumListNewest
	}
	endpoint := "getRecentAlbums-" + string(listType)
	env, err := c.fetch(ctx, endpoint, RestURL(creds, "getAlbumList2",
		Param{"type", string(listType)},
		Param{"size", strconv.Itoa(size)},
	))
	if err != nil {
		logger.Error("[Subsonic/"+endpoint+"] failed", logger.ErrorField(err))
		return []model.Album{}
	}
	if env.Response.AlbumList2 == nil {
		return []model.Album{}
	}
	albums := make([]model.Album, 0, len(env.Response.AlbumList2.Album))
	for _, a := range env.Response.AlbumList2.Album {
		albums = append(albums, toAlbum(a))
	}
	return albums
}

// GetPlaylists returns the playlists of the account.
func (c *Client) GetPlaylists(ctx context.Context, creds model.Credentials) []model.Playlist {
	env, err := c.fetch(ctx, "getPlaylists", RestURL(creds, "getPlaylists"))
	if err != nil {
		logger.Error("[Subsonic/getPlaylists] failed", logger.ErrorField(err))
		return []model.Playlist{}
	}
	if env.Response.Playlists == nil {
		return []model.Playlist{}
	}
	playlists := make([]model.Playlist, 0, len(env.Response.Playlists.Playlist))
	for _, p := range env.Response.Playlists.Playlist {
		playlists = append(playlists, toPlaylist(p))
	}
	return playlists
}

// GetAlbumDetails returns the album with its songs, or nil when the album
// is unknown or the request failed.
func (c *Client) GetAlbumDetails(ctx context.Context, creds model.Credentials, albumID string) *model.Album {
	env, err := c.fetch(ctx, "getAlbumDetails", RestURL(creds, "getAlbum", Param{"id", albumID}))
	if err != nil {
		logger.Error("[Subsonic/getAlbumDetails] failed", logger.String("album_id", albumID), logger.ErrorField(err))
		return nil
	}
	data := env.Response.Album
	if data == nil {
		return nil
	}

	album := toAlbum(*data)
	album.Songs = make([]model.Song, 0, len(data.Song))
	for _, s := range data.Song {
		song := toSong(s)
		song.Album = album.Title
		album.Songs = append(album.Songs, song)
	}
	return &album
}

// GetPlaylistDetails returns a playlist with its songs, or nil when not found.
func (c *Client) GetPlaylistDetails(ctx context.Context, creds model.Credentials, playlistID string) *model.Playlist {
	env, err := c.fetch(ctx, "getPlaylistDetails", RestURL(creds, "getPlaylist", Param{"id", playlistID}))
	if err != nil {
		logger.Error("[Subsonic/getPlaylistDetails] failed", logger.String("playlist_id", playlistID), logger.ErrorField(err))
		return nil
	}
	data := env.Response.Playlist
	if data == nil {
		return nil
	}

	playlist := toPlaylist(*data)
	playlist.Songs = toSongs(data.Entry)
	return &playlist
}
