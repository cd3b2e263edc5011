package subsonic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"GeminiStream/logger"
)

// DefaultLrcLibURL is the public lyrics lookup service used as fallback.
const DefaultLrcLibURL = "https://lrclib.net"

// Client talks to a Subsonic REST API and to LrcLib.
type Client struct {
	httpClient *http.Client
	lrclibURL  string
}

// NewClient creates a client with a 10s timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		lrclibURL: DefaultLrcLibURL,
	}
}

// SetTimeout sets the per-request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetLrcLibURL overrides the lyrics fallback base URL.
func (c *Client) SetLrcLibURL(u string) {
	c.lrclibURL = u
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// apiError is the error object of a failed subsonic-response.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type songDTO struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Album    string  `json:"album"`
	CoverArt string  `json:"coverArt"`
	Duration float64 `json:"duration"`
	Track    int     `json:"track"`
}

type albumDTO struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Name      string    `json:"name"`
	Artist    string    `json:"artist"`
	CoverArt  string    `json:"coverArt"`
	Year      int       `json:"year"`
	SongCount int       `json:"songCount"`
	Song      []songDTO `json:"song"`
}

type playlistDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SongCount int       `json:"songCount"`
	CoverArt  string    `json:"coverArt"`
	Entry     []songDTO `json:"entry"`
}

type lyricsDTO struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Value  string `json:"value"`
}

// envelope mirrors the subset of subsonic-response the client reads.
type envelope struct {
	Response struct {
		Status      string    `json:"status"`
		Version     string    `json:"version"`
		Error       *apiError `json:"error"`
		RandomSongs *struct {
			Song []songDTO `json:"song"`
		} `json:"randomSongs"`
		AlbumList2 *struct {
			Album []albumDTO `json:"album"`
		} `json:"albumList2"`
		Playlists *struct {
			Playlist []playlistDTO `json:"playlist"`
		} `json:"playlists"`
		Album    *albumDTO    `json:"album"`
		Playlist *playlistDTO `json:"playlist"`
		Lyrics   *lyricsDTO   `json:"lyrics"`
	} `json:"subsonic-response"`
}

// fetch performs a GET and decodes the subsonic-response envelope.
// endpoint is only used to tag log lines.
func (c *Client) fetch(ctx context.Context, endpoint, rawURL string) (*envelope, error) {
	tag := fmt.Sprintf("[Subsonic/%s]", endpoint)
	logger.Debug(tag+" request", logger.String("url", redactURL(rawURL)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error(tag+" request failed", logger.ErrorField(err))
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	logger.Debug(tag+" response", logger.Int("status", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error(tag+" unexpected status code",
			logger.Int("status", resp.StatusCode),
			logger.String("body", truncate(string(body), 512)))
		return nil, fmt.Errorf("HTTP %d - %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		logger.Error(tag+" failed to decode response", logger.ErrorField(err), logger.String("body", truncate(string(body), 512)))
		return nil, fmt.Errorf("invalid JSON response from server: %w", err)
	}

	if env.Response.Status == "failed" {
		if env.Response.Error != nil {
			return nil, fmt.Errorf("subsonic error %d: %s", env.Response.Error.Code, env.Response.Error.Message)
		}
		return nil, fmt.Errorf("subsonic request failed")
	}
	return &env, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
