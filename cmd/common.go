package cmd

import (
	"context"
	"fmt"

	"GeminiStream/cache"
	"GeminiStream/core/subsonic"
	"GeminiStream/logger"
	"GeminiStream/model"
	"GeminiStream/repository"
)

// openSettings connects Redis when the configuration needs it and returns
// the settings repository. The returned func releases the connection.
func openSettings() (repository.SettingsRepository, func(), error) {
	cleanup := func() {}
	if cfg.UsesRedis() {
		if err := cache.ConnectRedis(cfg); err != nil {
			return nil, cleanup, err
		}
		logger.Info("[CLI] Connected to Redis", logger.String("addr", cfg.RedisHost+":"+cfg.RedisPort))
		cleanup = func() {
			if err := cache.CloseRedis(); err != nil {
				logger.Warn("[CLI] Failed to close Redis", logger.ErrorField(err))
			}
		}
	}
	repo, err := repository.NewSettingsRepository(cfg, cache.RedisClient)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return repo, cleanup, nil
}

// loadCredentials returns the saved credentials, or empty ones when none are saved.
func loadCredentials(ctx context.Context, repo repository.SettingsRepository) (model.Credentials, error) {
	creds, err := repo.Load(ctx)
	if err != nil {
		return model.Credentials{}, fmt.Errorf("load settings: %w", err)
	}
	if creds == nil {
		return model.Credentials{}, nil
	}
	return *creds, nil
}

func newSubsonicClient() *subsonic.Client {
	client := subsonic.NewClient()
	client.SetTimeout(cfg.HTTPTimeout)
	client.SetLrcLibURL(cfg.LrcLibURL)
	return client
}
