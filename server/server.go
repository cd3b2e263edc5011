package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"GeminiStream/core/player"
	"GeminiStream/logger"
	"GeminiStream/repository"

	"github.com/gorilla/mux"
)

// Server is the local control API: transport, catalog, settings and a
// websocket stream of playback state.
type Server struct {
	addr   string
	hub    *Hub
	router *mux.Router
}

// New wires handlers around controller.
func New(addr string, controller *player.Controller, catalog Catalog, settings repository.SettingsRepository) *Server {
	hub := NewHub(controller)
	s := &Server{addr: addr, hub: hub}
	s.router = newRouter(
		NewPlayerHandler(controller),
		NewCatalogHandler(catalog, controller),
		NewSettingsHandler(settings, controller, catalog, hub),
		hub,
	)
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// corsMiddleware adds CORS headers.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newRouter(ph *PlayerHandler, ch *CatalogHandler, sh *SettingsHandler, hub *Hub) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	api := router.PathPrefix("/api").Subrouter()

	// transport
	api.HandleFunc("/state", ph.StateHandler).Methods(http.MethodGet)
	api.HandleFunc("/queue", ph.QueueHandler).Methods(http.MethodGet)
	api.HandleFunc("/play", ph.PlayHandler).Methods(http.MethodPost)
	api.HandleFunc("/toggle", ph.ToggleHandler).Methods(http.MethodPost)
	api.HandleFunc("/next", ph.NextHandler).Methods(http.MethodPost)
	api.HandleFunc("/previous", ph.PreviousHandler).Methods(http.MethodPost)
	api.HandleFunc("/seek", ph.SeekHandler).Methods(http.MethodPost)
	api.HandleFunc("/expand", ph.ExpandHandler).Methods(http.MethodPost)
	api.HandleFunc("/cast", ph.CastHandler).Methods(http.MethodPost)
	api.HandleFunc("/lyrics", ph.LyricsHandler).Methods(http.MethodGet)

	// catalog
	api.HandleFunc("/songs/random", ch.RandomSongsHandler).Methods(http.MethodGet)
	api.HandleFunc("/queue/more", ch.MoreSongsHandler).Methods(http.MethodPost)
	api.HandleFunc("/albums", ch.AlbumsHandler).Methods(http.MethodGet)
	api.HandleFunc("/albums/{id}", ch.AlbumHandler).Methods(http.MethodGet)
	api.HandleFunc("/playlists", ch.PlaylistsHandler).Methods(http.MethodGet)
	api.HandleFunc("/playlists/{id}", ch.PlaylistHandler).Methods(http.MethodGet)
	api.HandleFunc("/cover/{id}", ch.CoverHandler).Methods(http.MethodGet)
	api.HandleFunc("/cover/", ch.CoverHandler).Methods(http.MethodGet)

	// settings
	api.HandleFunc("/settings", sh.GetSettingsHandler).Methods(http.MethodGet)
	api.HandleFunc("/settings", sh.PutSettingsHandler).Methods(http.MethodPut)

	router.HandleFunc("/ws", hub.ServeWS)
	return router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	// server timeouts
	srv := &http.Server{
		Addr:        s.addr,
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		// cast requests wait for the receiver, keep room for the settle delay
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[Server] Control API listening", logger.String("addr", s.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("[Server] Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("[Server] Server stopped")
	return nil
}
