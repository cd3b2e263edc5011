package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"GeminiStream/config"
	"GeminiStream/logger"
	"GeminiStream/model"

	"github.com/fsnotify/fsnotify"
	"github.com/go-redis/redis/v8"
)

// SettingsRepository persists the user's server credentials.
type SettingsRepository interface {
	// Load returns the saved credentials, nil when nothing was saved.
	Load(ctx context.Context) (*model.Credentials, error)
	// Save validates and stores creds.
	Save(ctx context.Context, creds model.Credentials) error
}

// Watcher is implemented by repositories that can report external edits.
type Watcher interface {
	Watch(ctx context.Context, onChange func(model.Credentials)) error
}

const settingsDebounce = 100 * time.Millisecond

// fileSettingsRepository implements SettingsRepository over a JSON file.
type fileSettingsRepository struct {
	path string
}

// NewFileSettingsRepository creates a repository storing settings at path.
func NewFileSettingsRepository(path string) SettingsRepository {
	return &fileSettingsRepository{path: path}
}

func (r *fileSettingsRepository) Load(ctx context.Context) (*model.Credentials, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil // nothing saved yet
		}
		return nil, fmt.Errorf("failed to read settings file %s: %w", r.path, err)
	}
	return decodeCredentials(data)
}

func (r *fileSettingsRepository) Save(ctx context.Context, creds model.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}

	// write then rename so watchers never see a half written file
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	logger.Info("[Settings/Save] Settings saved", logger.String("path", r.path))
	return nil
}

// Watch calls onChange with the new credentials whenever the settings file
// is written or replaced. Invalid contents are logged and skipped. It blocks
// until ctx is done.
func (r *fileSettingsRepository) Watch(ctx context.Context, onChange func(model.Credentials)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}
	// watch the directory, editors usually save by replacing the file
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(r.path) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				pending = time.After(settingsDebounce)
			}
		case <-pending:
			pending = nil
			creds, err := r.Load(ctx)
			if err != nil {
				logger.Warn("[Settings/Watch] Failed to reload settings", logger.ErrorField(err))
				continue
			}
			if creds == nil {
				continue
			}
			if err := creds.Validate(); err != nil {
				logger.Warn("[Settings/Watch] Ignoring invalid settings", logger.ErrorField(err))
				continue
			}
			logger.Info("[Settings/Watch] Settings changed on disk", logger.String("server", creds.BaseURL()))
			onChange(*creds)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("[Settings/Watch] Watcher error", logger.ErrorField(err))
		}
	}
}

// redisSettingsRepository implements SettingsRepository over one Redis key.
type redisSettingsRepository struct {
	client *redis.Client
	key    string
}

// NewRedisSettingsRepository creates a repository keyed by the app id.
func NewRedisSettingsRepository(client *redis.Client) SettingsRepository {
	return &redisSettingsRepository{client: client, key: "settings:" + config.AppID}
}

func (r *redisSettingsRepository) Load(ctx context.Context) (*model.Credentials, error) {
	if r.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return decodeCredentials(data)
}

func (r *redisSettingsRepository) Save(ctx context.Context, creds model.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	if r.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	logger.Info("[Settings/Save] Settings saved", logger.String("key", r.key))
	return nil
}

func decodeCredentials(data []byte) (*model.Credentials, error) {
	var creds model.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &creds, nil
}

// NewSettingsRepository picks the backend configured by SETTINGS_BACKEND and
// seals passwords when SETTINGS_SECRET is set.
func NewSettingsRepository(cfg *config.Config, client *redis.Client) (SettingsRepository, error) {
	var repo SettingsRepository
	switch cfg.SettingsBackend {
	case "", "file":
		repo = NewFileSettingsRepository(cfg.SettingsPath)
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("settings backend redis needs a Redis connection")
		}
		repo = NewRedisSettingsRepository(client)
	default:
		return nil, fmt.Errorf("unknown settings backend %q", cfg.SettingsBackend)
	}
	if cfg.SettingsSecret == "" {
		return repo, nil
	}
	return NewSealedSettingsRepository(repo, cfg.SettingsSecret)
}
