package cmd

import (
	"context"
	"fmt"
	"time"

	"GeminiStream/cache"
	"GeminiStream/logger"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Check the Redis connection",
	Long:  `Connects to Redis, runs a basic read/write round trip and prints the published now-playing entry.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "Redis: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := cache.ConnectRedis(cfg); err != nil {
			return fmt.Errorf("connect to Redis: %w", err)
		}
		defer func() {
			if err := cache.CloseRedis(); err != nil {
				logger.Warn("[CLI] Failed to close Redis", logger.ErrorField(err))
			}
		}()
		fmt.Fprintln(cmd.OutOrStdout(), "Redis connection OK")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cache.CheckRedis(ctx); err != nil {
			return fmt.Errorf("Redis round trip failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Redis round trip OK")

		np, err := cache.NewNowPlayingCache().Get(ctx)
		if err != nil {
			return err
		}
		if np != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Now playing: %s - %s (playing=%v)\n", np.Artist, np.Title, np.IsPlaying)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
