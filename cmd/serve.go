package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"GeminiStream/cache"
	"GeminiStream/core/audio"
	"GeminiStream/core/cast"
	"GeminiStream/core/player"
	"GeminiStream/logger"
	"GeminiStream/model"
	"GeminiStream/repository"
	"GeminiStream/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the player and the control API",
	Long:  `Starts the local player and serves the control API and the websocket state stream on LISTEN_ADDR.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	repo, closeRedis, err := openSettings()
	if err != nil {
		return err
	}
	defer closeRedis()

	creds, err := loadCredentials(ctx, repo)
	if err != nil {
		return err
	}
	if err := creds.Validate(); err != nil {
		logger.Warn("[Serve] No usable server settings yet, configure them with PUT /api/settings", logger.ErrorField(err))
	}

	client := newSubsonicClient()
	output := audio.NewProcessOutput(cfg.PlayerPath)
	opts := player.Options{
		Output:          output,
		Lyrics:          client,
		CastSettleDelay: cfg.CastSettleDelay,
	}
	if cfg.CastRelayURL != "" {
		relay := cast.NewRelayBridge(cfg.CastRelayURL)
		defer relay.Close()
		opts.Bridge = relay
	}
	if cache.RedisClient != nil {
		opts.Lyrics = cache.NewLyricsCache(client)
	}
	if cfg.PublishNowPlaying {
		opts.Session = cache.NewNowPlayingCache()
	}

	controller := player.NewController(creds, opts)
	restoreQueue(ctx, controller)
	defer saveQueue(controller)

	go output.Run(ctx)
	go controller.Run(ctx)

	srv := server.New(cfg.ListenAddr, controller, client, repo)
	if cfg.StaticDir != "" {
		srv.ServeStatic(cfg.StaticDir)
	}

	if w, ok := repo.(repository.Watcher); ok {
		go func() {
			err := w.Watch(ctx, func(c model.Credentials) {
				controller.SetCredentials(c)
				_ = srv.Hub().Broadcast(server.MsgTypeSettings, c.Redacted())
			})
			if err != nil {
				logger.Warn("[Serve] Settings watcher stopped", logger.ErrorField(err))
			}
		}()
	}

	err = srv.Run(ctx)
	controller.Wait()
	return err
}

func restoreQueue(ctx context.Context, controller *player.Controller) {
	if cache.RedisClient == nil {
		return
	}
	songs, currentID, err := cache.NewQueueCache().LoadQueue(ctx)
	if err != nil {
		logger.Warn("[Serve] Failed to restore queue", logger.ErrorField(err))
		return
	}
	if controller.Restore(songs, currentID) {
		logger.Info("[Serve] Queue restored", logger.Int("songs", len(songs)), logger.String("current", currentID))
	}
}

func saveQueue(controller *player.Controller) {
	if cache.RedisClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	currentID := ""
	if st := controller.State(); st.CurrentSong != nil {
		currentID = st.CurrentSong.ID
	}
	if err := cache.NewQueueCache().SaveQueue(ctx, controller.Queue(), currentID); err != nil {
		logger.Warn("[Serve] Failed to save queue", logger.ErrorField(err))
	}
}
