package subsonic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"GeminiStream/logger"
	"GeminiStream/model"
)

// errNoLrcLibMatch is returned when LrcLib has no lyrics for the track.
var errNoLrcLibMatch = errors.New("lrclib: no match")

type lrclibResponse struct {
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// fetchLrcLib queries the exact-match get endpoint. Search is not used to
// avoid loose matches.
func (c *Client) fetchLrcLib(ctx context.Context, song model.Song) (*model.Lyrics, error) {
	base, err := url.Parse(strings.TrimSuffix(c.lrclibURL, "/") + "/api/get")
	if err != nil {
		return nil, fmt.Errorf("invalid lrclib url %q: %w", c.lrclibURL, err)
	}

	query := base.Query()
	query.Set("artist_name", song.Artist)
	query.Set("track_name", song.Title)
	query.Set("album_name", song.Album)
	query.Set("duration", strconv.Itoa(int(math.Round(song.Duration))))
	base.RawQuery = query.Encode()

	logger.Info("[LrcLib] attempting fallback fetch", logger.String("song_id", song.ID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", ClientName+"/"+APIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w (status %d)", errNoLrcLibMatch, resp.StatusCode)
	}

	var payload lrclibResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	content := payload.SyncedLyrics
	if content == "" {
		content = payload.PlainLyrics
	}
	if content == "" {
		return nil, errNoLrcLibMatch
	}

	logger.Info("[LrcLib] lyrics found", logger.String("song_id", song.ID))
	return &model.Lyrics{
		Artist:  payload.ArtistName,
		Title:   payload.TrackName,
		Content: content,
	}, nil
}
