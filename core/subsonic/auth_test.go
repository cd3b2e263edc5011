package subsonic

import (
	"errors"
	"strings"
	"testing"

	"GeminiStream/model"
)

func testCreds() model.Credentials {
	return model.Credentials{ServerURL: "http://music.local:4533/", Username: "alice"}
}

func TestEncodePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     string
	}{
		{name: "ascii", password: "ab", want: "enc:6162"},
		{name: "low code point padded", password: "\t", want: "enc:09"},
		{name: "latin1", password: "é", want: "enc:e9"},
		{name: "bmp", password: "€", want: "enc:20ac"},
		{name: "surrogate pair", password: "😀", want: "enc:d83dde00"},
		{name: "empty", password: "", want: "enc:"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := EncodePassword(tc.password); got != tc.want {
				t.Fatalf("EncodePassword(%q) = %q, want %q", tc.password, got, tc.want)
			}
		})
	}
}

func TestBuildAuthQuery(t *testing.T) {
	creds := testCreds()

	got := BuildAuthQuery(creds)
	want := "u=alice&v=1.16.1&c=GeminiStream&f=json"
	if got != want {
		t.Fatalf("without password: got %q, want %q", got, want)
	}
	if strings.Contains(got, "p=") {
		t.Fatalf("password parameter must be omitted, got %q", got)
	}

	creds.Password = "ab"
	got = BuildAuthQuery(creds)
	want = "u=alice&p=enc%3A6162&v=1.16.1&c=GeminiStream&f=json"
	if got != want {
		t.Fatalf("with password: got %q, want %q", got, want)
	}
}

func TestBuildAuthQueryEscapesUsername(t *testing.T) {
	creds := model.Credentials{ServerURL: "http://x", Username: "a b&c"}
	got := BuildAuthQuery(creds)
	if !strings.HasPrefix(got, "u=a+b%26c&") {
		t.Fatalf("username not form-encoded: %q", got)
	}
}

func TestStreamURL(t *testing.T) {
	creds := testCreds()

	got, err := StreamURL(creds, "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "http://music.local:4533/rest/stream?id=42&u=alice&v=1.16.1&c=GeminiStream&f=json"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	again, _ := StreamURL(creds, "42")
	if again != got {
		t.Fatalf("stream URL not deterministic: %q vs %q", got, again)
	}
}

func TestStreamURLChangesWithCredentials(t *testing.T) {
	creds := testCreds()
	before, _ := StreamURL(creds, "42")
	creds.Password = "secret"
	after, _ := StreamURL(creds, "42")
	if before == after {
		t.Fatal("changing the password must change the stream URL")
	}
}

func TestStreamURLInvalidCredentials(t *testing.T) {
	tests := []struct {
		name  string
		creds model.Credentials
	}{
		{name: "missing url", creds: model.Credentials{Username: "alice"}},
		{name: "missing username", creds: model.Credentials{ServerURL: "http://x"}},
		{name: "relative url", creds: model.Credentials{ServerURL: "music.local", Username: "alice"}},
		{name: "bad scheme", creds: model.Credentials{ServerURL: "ftp://music.local", Username: "alice"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := StreamURL(tc.creds, "42")
			if !errors.Is(err, model.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestCoverArtURL(t *testing.T) {
	creds := testCreds()

	if got := CoverArtURL(creds, "", 300); got != PlaceholderCoverURL {
		t.Fatalf("missing id should yield placeholder, got %q", got)
	}

	got := CoverArtURL(creds, "al-1", 0)
	want := "http://music.local:4533/rest/getCoverArt?id=al-1&size=300&u=alice&v=1.16.1&c=GeminiStream&f=json"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	if got := CoverArtURL(creds, "al-1", 512); !strings.Contains(got, "size=512") {
		t.Fatalf("size not applied: %q", got)
	}

	if got := PlaylistCoverURL(creds, "", 300); got != PlaceholderPlaylistURL {
		t.Fatalf("playlist placeholder expected, got %q", got)
	}
}

func TestRedactURL(t *testing.T) {
	creds := testCreds()
	creds.Password = "ab"
	raw, _ := StreamURL(creds, "1")

	got := redactURL(raw)
	if strings.Contains(got, "6162") {
		t.Fatalf("password token leaked: %q", got)
	}
	if !strings.Contains(got, "p=REDACTED") {
		t.Fatalf("expected redaction marker: %q", got)
	}
}
