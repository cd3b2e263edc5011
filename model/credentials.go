package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidCredentials is returned when credentials cannot address a server.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials identifies a Subsonic server and the account used against it.
// A value is immutable for the duration of a session: replacing it
// invalidates every URL built from the previous value.
type Credentials struct {
	ServerURL            string `json:"url"`
	Username             string `json:"username"`
	Password             string `json:"password,omitempty"`
	EnableLyricsFallback bool   `json:"enableLrcLib,omitempty"`
}

// Validate checks the fields required before saving settings or building URLs.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.ServerURL) == "" || strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("%w: server URL and username are required", ErrInvalidCredentials)
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: server URL must be an absolute http(s) URL", ErrInvalidCredentials)
	}
	return nil
}

// BaseURL returns the server URL without a trailing slash.
func (c Credentials) BaseURL() string {
	return strings.TrimSuffix(c.ServerURL, "/")
}

// Redacted returns a copy safe to hand back to UI bindings.
func (c Credentials) Redacted() Credentials {
	if c.Password != "" {
		c.Password = "********"
	}
	return c
}
