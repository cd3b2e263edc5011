package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"GeminiStream/core/audio"
	"GeminiStream/core/player"
	"GeminiStream/core/subsonic"
	"GeminiStream/model"
	"GeminiStream/repository"

	"github.com/gorilla/websocket"
)

var testCreds = model.Credentials{ServerURL: "http://music.local", Username: "alice", Password: "pw"}

type nullOutput struct {
	mu     sync.Mutex
	source string
	events chan audio.Event
}

func (o *nullOutput) Source() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.source
}

func (o *nullOutput) Load(ctx context.Context, url string) error {
	o.mu.Lock()
	o.source = url
	o.mu.Unlock()
	return nil
}

func (o *nullOutput) Resume(context.Context) error { return nil }
func (o *nullOutput) Pause(context.Context) error { return nil }
func (o *nullOutput) Seek(context.Context, float64) error { return nil }
func (o *nullOutput) Stop() error { return nil }
func (o *nullOutput) Events() <-chan audio.Event { return o.events }

type fakeCatalog struct {
	songs   []model.Song
	albums  map[string]*model.Album
	pingErr error
}

func (f *fakeCatalog) GetRandomSongs(ctx context.Context, creds model.Credentials, size int) []model.Song {
	if size < len(f.songs) {
		return f.songs[:size]
	}
	return f.songs
}

func (f *fakeCatalog) GetRecentAlbums(ctx context.Context, creds model.Credentials, size int, listType model.AlbumListType) []model.Album {
	out := []model.Album{}
	for _, a := range f.albums {
		out = append(out, *a)
	}
	return out
}

func (f *fakeCatalog) GetPlaylists(ctx context.Context, creds model.Credentials) []model.Playlist {
	return []model.Playlist{}
}

func (f *fakeCatalog) GetAlbumDetails(ctx context.Context, creds model.Credentials, id string) *model.Album {
	return f.albums[id]
}

func (f *fakeCatalog) GetPlaylistDetails(ctx context.Context, creds model.Credentials, id string) *model.Playlist {
	return nil
}

func (f *fakeCatalog) Ping(ctx context.Context, creds model.Credentials) error { return f.pingErr }

type testEnv struct {
	srv        *Server
	controller *player.Controller
	catalog    *fakeCatalog
	repo       repository.SettingsRepository
}

func newTestEnv(t *testing.T, creds model.Credentials) *testEnv {
	t.Helper()
	controller := player.NewController(creds, player.Options{
		Output: &nullOutput{events: make(chan audio.Event)},
	})
	catalog := &fakeCatalog{
		songs: []model.Song{{ID: "s1", Title: "One"}, {ID: "s2", Title: "Two"}},
		albums: map[string]*model.Album{
			"al1": {ID: "al1", Title: "LP", Songs: []model.Song{{ID: "s1"}}},
		},
	}
	repo := repository.NewFileSettingsRepository(filepath.Join(t.TempDir(), "settings.json"))
	return &testEnv{
		srv:        New("127.0.0.1:0", controller, catalog, repo),
		controller: controller,
		catalog:    catalog,
		repo:       repo,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)

	var resp apiResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, resp
}

func TestPlayEndpoints(t *testing.T) {
	env := newTestEnv(t, testCreds)
	queue := []model.Song{{ID: "s1", Title: "One"}, {ID: "s2", Title: "Two"}}

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		want   string // expected current song id
	}{
		{"empty queue", http.MethodPost, "/api/play", nil, http.StatusConflict, ""},
		{"play with context", http.MethodPost, "/api/play", PlayRequest{SongID: "s2", Context: queue}, http.StatusOK, "s2"},
		{"next wraps", http.MethodPost, "/api/next", nil, http.StatusOK, "s1"},
		{"previous wraps", http.MethodPost, "/api/previous", nil, http.StatusOK, "s2"},
		{"play from queue by id", http.MethodPost, "/api/play", PlayRequest{SongID: "s1"}, http.StatusOK, "s1"},
		{"toggle", http.MethodPost, "/api/toggle", nil, http.StatusOK, "s1"},
		{"seek", http.MethodPost, "/api/seek", map[string]float64{"position": 3}, http.StatusOK, "s1"},
	}

	for _, tc := range tests {
		rec, resp := env.do(t, tc.method, tc.path, tc.body)
		if rec.Code != tc.status {
			t.Fatalf("%s: status = %d, want %d (%s)", tc.name, rec.Code, tc.status, rec.Body.String())
		}
		if tc.want != "" {
			if got := currentSongID(env.controller); got != tc.want {
				t.Fatalf("%s: current = %s, want %s", tc.name, got, tc.want)
			}
			if !resp.Success {
				t.Fatalf("%s: success = false", tc.name)
			}
		}
	}

	if st := env.controller.State(); st.IsPlaying || st.Position != 3 {
		t.Fatalf("state = %+v, want paused at 3", st)
	}
}

func currentSongID(c *player.Controller) string {
	if st := c.State(); st.CurrentSong != nil {
		return st.CurrentSong.ID
	}
	return ""
}

func TestPlayUnresolvable(t *testing.T) {
	env := newTestEnv(t, model.Credentials{})
	rec, resp := env.do(t, http.MethodPost, "/api/play", PlayRequest{SongID: "s1"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if resp.Success || resp.Error == "" {
		t.Fatalf("response = %+v", resp)
	}
	if env.controller.State().HasSong() {
		t.Fatal("state changed on resolution failure")
	}
}

func TestCastUnavailable(t *testing.T) {
	env := newTestEnv(t, testCreds)
	rec, resp := env.do(t, http.MethodPost, "/api/cast", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if resp.Error != player.ErrCastUnavailable.Error() {
		t.Fatalf("error = %q", resp.Error)
	}
}

func TestSettingsEndpoints(t *testing.T) {
	env := newTestEnv(t, testCreds)

	rec, _ := env.do(t, http.MethodPut, "/api/settings", model.Credentials{ServerURL: "http://x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing username status = %d, want 400", rec.Code)
	}

	newCreds := model.Credentials{ServerURL: "https://other.example", Username: "bob", Password: "hunter2"}
	rec, _ = env.do(t, http.MethodPut, "/api/settings", newCreds)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d (%s)", rec.Code, rec.Body.String())
	}
	if got := env.controller.Credentials(); got != newCreds {
		t.Fatalf("controller credentials = %+v", got)
	}
	saved, err := env.repo.Load(context.Background())
	if err != nil || saved == nil || *saved != newCreds {
		t.Fatalf("saved = %+v, %v", saved, err)
	}

	rec, resp := env.do(t, http.MethodGet, "/api/settings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	data, _ := json.Marshal(resp.Data)
	if strings.Contains(string(data), "hunter2") {
		t.Fatalf("password leaked: %s", data)
	}

	// the redacted placeholder keeps the stored password
	roundTrip := newCreds
	roundTrip.Password = redactedPassword
	roundTrip.EnableLyricsFallback = true
	if rec, _ := env.do(t, http.MethodPut, "/api/settings", roundTrip); rec.Code != http.StatusOK {
		t.Fatalf("round trip status = %d", rec.Code)
	}
	if got := env.controller.Credentials().Password; got != "hunter2" {
		t.Fatalf("password = %q, want kept", got)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	env := newTestEnv(t, testCreds)

	if rec, _ := env.do(t, http.MethodGet, "/api/albums/al1", nil); rec.Code != http.StatusOK {
		t.Fatalf("album status = %d", rec.Code)
	}
	if rec, _ := env.do(t, http.MethodGet, "/api/albums/missing", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing album status = %d", rec.Code)
	}
	if rec, _ := env.do(t, http.MethodGet, "/api/playlists/missing", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing playlist status = %d", rec.Code)
	}

	rec, _ := env.do(t, http.MethodPost, "/api/queue/more?size=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("more status = %d", rec.Code)
	}
	if q := env.controller.Queue(); len(q) != 1 || q[0].ID != "s1" {
		t.Fatalf("queue = %+v", q)
	}
}

func TestCoverRedirect(t *testing.T) {
	env := newTestEnv(t, testCreds)

	rec, _ := env.do(t, http.MethodGet, "/api/cover/al-1?size=120", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if got, want := rec.Header().Get("Location"), subsonic.CoverArtURL(testCreds, "al-1", 120); got != want {
		t.Fatalf("Location = %q, want %q", got, want)
	}

	rec, _ = env.do(t, http.MethodGet, "/api/cover/", nil)
	if got := rec.Header().Get("Location"); got != subsonic.PlaceholderCoverURL {
		t.Fatalf("Location = %q, want placeholder", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, testCreds)
	req := httptest.NewRequest(http.MethodOptions, "/api/state", nil)
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header: %v", rec.Header())
	}
}

func TestWebSocketStatePush(t *testing.T) {
	env := newTestEnv(t, testCreds)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.srv.Hub().Run(ctx)

	ts := httptest.NewServer(env.srv.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readState := func() model.PlaybackState {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		for {
			var msg WSMessage
			if err := conn.ReadJSON(&msg); err != nil {
				t.Fatalf("read: %v", err)
			}
			if msg.Type != MsgTypeState {
				continue
			}
			var st model.PlaybackState
			if err := json.Unmarshal(msg.Data, &st); err != nil {
				t.Fatalf("decode state: %v", err)
			}
			return st
		}
	}

	if st := readState(); st.HasSong() {
		t.Fatalf("initial state = %+v", st)
	}

	if err := env.controller.Play(context.Background(), model.Song{ID: "s1"}, nil); err != nil {
		t.Fatalf("Play: %v", err)
	}
	for {
		st := readState()
		if st.HasSong() && st.CurrentSong.ID == "s1" {
			break
		}
	}

	// transport commands flow back into the controller
	if err := conn.WriteJSON(WSMessage{Type: MsgTypePause}); err != nil {
		t.Fatalf("write: %v", err)
	}
	for {
		if st := readState(); !st.IsPlaying {
			break
		}
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&player.SourceResolutionError{SongID: "x", Err: model.ErrInvalidCredentials}, http.StatusUnprocessableEntity},
		{player.ErrCastUnavailable, http.StatusServiceUnavailable},
		{&player.CastSessionRejectedError{Step: "load_media"}, http.StatusBadGateway},
		{player.ErrEmptyQueue, http.StatusConflict},
		{model.ErrInvalidCredentials, http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tc := range tests {
		if got := statusForError(tc.err); got != tc.want {
			t.Fatalf("statusForError(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestStaticUI(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>ui</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "assets"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatal(err)
	}

	env := newTestEnv(t, testCreds)
	env.srv.ServeStatic(dir)

	tests := []struct {
		path   string
		status int
		body   string
		cache  string
	}{
		{"/", http.StatusOK, "<html>ui</html>", "no-cache"},
		{"/albums/al1", http.StatusOK, "<html>ui</html>", "no-cache"},
		{"/assets/app.js", http.StatusOK, "console.log(1)", "public, max-age=31536000"},
		{"/assets/missing.js", http.StatusNotFound, "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.URL.Path = tc.path
			rec := httptest.NewRecorder()
			env.srv.Handler().ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.body != "" && !strings.Contains(rec.Body.String(), tc.body) {
				t.Fatalf("body = %q, want %q", rec.Body.String(), tc.body)
			}
			if got := rec.Header().Get("Cache-Control"); got != tc.cache {
				t.Fatalf("Cache-Control = %q, want %q", got, tc.cache)
			}
		})
	}

	// API routes keep priority over the UI
	rec, _ := env.do(t, http.MethodGet, "/api/state", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("/api/state status = %d", rec.Code)
	}
}
