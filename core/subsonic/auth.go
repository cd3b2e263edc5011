package subsonic

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf16"

	"GeminiStream/model"
)

const (
	// ClientName is sent as the c parameter on every request.
	ClientName = "GeminiStream"
	// APIVersion is the Subsonic protocol version the client speaks.
	APIVersion = "1.16.1"
	// ResponseFormat asks the server for JSON envelopes.
	ResponseFormat = "json"

	DefaultCoverSize = 300

	PlaceholderCoverURL    = "https://via.placeholder.com/300x300?text=No+Cover"
	PlaceholderPlaylistURL = "https://via.placeholder.com/300?text=Playlist"

	passwordPrefix = "enc:"
)

// Param is one ordered query parameter. Order matters: URLs are compared as
// strings to decide whether the audio source changed.
type Param struct {
	Key   string
	Value string
}

// EncodePassword hex-obfuscates a password the way Subsonic servers expect
// for the p parameter: "enc:" followed by the hex value of every UTF-16
// code unit, at least two digits each.
func EncodePassword(password string) string {
	var b strings.Builder
	b.WriteString(passwordPrefix)
	for _, unit := range utf16.Encode([]rune(password)) {
		fmt.Fprintf(&b, "%02x", unit)
	}
	return b.String()
}

// BuildAuthQuery returns the signed query suffix appended to every request.
// The p parameter is omitted entirely when no password is set.
func BuildAuthQuery(creds model.Credentials) string {
	params := make([]Param, 0, 5)
	params = append(params, Param{"u", creds.Username})
	if creds.Password != "" {
		params = append(params, Param{"p", EncodePassword(creds.Password)})
	}
	params = append(params,
		Param{"v", APIVersion},
		Param{"c", ClientName},
		Param{"f", ResponseFormat},
	)
	return encodeParams(params)
}

func encodeParams(params []Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
	}
	return strings.Join(parts, "&")
}

// RestURL builds base + "/rest/" + endpoint with params in the given order,
// followed by the auth query.
func RestURL(creds model.Credentials, endpoint string, params ...Param) string {
	var b strings.Builder
	b.WriteString(creds.BaseURL())
	b.WriteString("/rest/")
	b.WriteString(endpoint)
	b.WriteByte('?')
	if len(params) > 0 {
		b.WriteString(encodeParams(params))
		b.WriteByte('&')
	}
	b.WriteString(BuildAuthQuery(creds))
	return b.String()
}

// StreamURL returns the audio stream URL for a song. It fails only when the
// credentials cannot address a server.
func StreamURL(creds model.Credentials, songID string) (string, error) {
	if err := creds.Validate(); err != nil {
		return "", err
	}
	if songID == "" {
		return "", fmt.Errorf("%w: empty song id", model.ErrInvalidCredentials)
	}
	return RestURL(creds, "stream", Param{"id", songID}), nil
}

// CoverArtURL resolves a cover art reference. A missing id is not an error:
// the placeholder image is returned instead.
func CoverArtURL(creds model.Credentials, id string, size int) string {
	if id == "" {
		return PlaceholderCoverURL
	}
	if size <= 0 {
		size = DefaultCoverSize
	}
	return RestURL(creds, "getCoverArt", Param{"id", id}, Param{"size", strconv.Itoa(size)})
}

// PlaylistCoverURL is CoverArtURL with the playlist placeholder.
func PlaylistCoverURL(creds model.Credentials, id string, size int) string {
	if id == "" {
		return PlaceholderPlaylistURL
	}
	return CoverArtURL(creds, id, size)
}

// redactURL hides the password token before a URL reaches the logs.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Get("p") == "" {
		return raw
	}
	q.Set("p", "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}
