package server

import (
	"context"
	"net/http"
	"strconv"

	"GeminiStream/core/player"
	"GeminiStream/core/subsonic"
	"GeminiStream/model"

	"github.com/gorilla/mux"
)

const (
	defaultRandomSize = 50
	defaultAlbumSize  = 20
	maxListSize       = 500
)

// Catalog is the read side of the Subsonic server.
type Catalog interface {
	GetRandomSongs(ctx context.Context, creds model.Credentials, size int) []model.Song
	GetRecentAlbums(ctx context.Context, creds model.Credentials, size int, listType model.AlbumListType) []model.Album
	GetPlaylists(ctx context.Context, creds model.Credentials) []model.Playlist
	GetAlbumDetails(ctx context.Context, creds model.Credentials, albumID string) *model.Album
	GetPlaylistDetails(ctx context.Context, creds model.Credentials, playlistID string) *model.Playlist
	Ping(ctx context.Context, creds model.Credentials) error
}

// CatalogHandler serves browse endpoints with the controller's credentials.
type CatalogHandler struct {
	catalog    Catalog
	controller *player.Controller
}

// NewCatalogHandler creates the catalog handler.
func NewCatalogHandler(catalog Catalog, controller *player.Controller) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, controller: controller}
}

func sizeParam(r *http.Request, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || n <= 0 {
		return fallback
	}
	if n > maxListSize {
		return maxListSize
	}
	return n
}

func (h *CatalogHandler) RandomSongsHandler(w http.ResponseWriter, r *http.Request) {
	songs := h.catalog.GetRandomSongs(r.Context(), h.controller.Credentials(), sizeParam(r, defaultRandomSize))
	writeJSON(w, http.StatusOK, songs)
}

// MoreSongsHandler fetches another random batch and appends it to the queue.
func (h *CatalogHandler) MoreSongsHandler(w http.ResponseWriter, r *http.Request) {
	songs := h.catalog.GetRandomSongs(r.Context(), h.controller.Credentials(), sizeParam(r, defaultRandomSize))
	h.controller.AppendQueue(songs)
	writeJSON(w, http.StatusOK, songs)
}

func (h *CatalogHandler) AlbumsHandler(w http.ResponseWriter, r *http.Request) {
	listType := model.AlbumListNewest
	if t := r.URL.Query().Get("type"); t == string(model.AlbumListRecent) {
		listType = model.AlbumListRecent
	}
	albums := h.catalog.GetRecentAlbums(r.Context(), h.controller.Credentials(), sizeParam(r, defaultAlbumSize), listType)
	writeJSON(w, http.StatusOK, albums)
}

func (h *CatalogHandler) AlbumHandler(w http.ResponseWriter, r *http.Request) {
	album := h.catalog.GetAlbumDetails(r.Context(), h.controller.Credentials(), mux.Vars(r)["id"])
	if album == nil {
		writeError(w, http.StatusNotFound, "album not found")
		return
	}
	writeJSON(w, http.StatusOK, album)
}

func (h *CatalogHandler) PlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.GetPlaylists(r.Context(), h.controller.Credentials()))
}

func (h *CatalogHandler) PlaylistHandler(w http.ResponseWriter, r *http.Request) {
	pl := h.catalog.GetPlaylistDetails(r.Context(), h.controller.Credentials(), mux.Vars(r)["id"])
	if pl == nil {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	writeJSON(w, http.StatusOK, pl)
}

// CoverHandler redirects to the authenticated cover art URL, or to the
// placeholder when the id is empty.
func (h *CatalogHandler) CoverHandler(w http.ResponseWriter, r *http.Request) {
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	target := subsonic.CoverArtURL(h.controller.Credentials(), mux.Vars(r)["id"], size)
	http.Redirect(w, r, target, http.StatusFound)
}
