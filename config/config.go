package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppID keys every durable record the player writes.
const AppID = "com.subsonic.geministreamer"

// Config stores the process configuration. Credentials are not part of it:
// they are user settings persisted through the settings repository.
type Config struct {
	ListenAddr string
	StaticDir  string // Web UI bundle, empty serves only the API

	LogLevel      string
	LogPath       string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int

	// Settings persistence: "file" or "redis"
	SettingsBackend string
	SettingsPath    string
	SettingsSecret  string // Non-empty encrypts the stored password

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	HTTPTimeout time.Duration
	LrcLibURL   string

	PlayerPath string // External audio player binary, ffplay by default

	CastRelayURL    string        // Empty disables casting
	CastSettleDelay time.Duration // Wait between device picker and load media

	PublishNowPlaying bool
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// defaultSettingsPath places the settings file under the user config dir.
func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, AppID, "settings.json")
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		ListenAddr:        getEnv("LISTEN_ADDR", "127.0.0.1:8080"),
		StaticDir:         getEnv("STATIC_DIR", ""),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogPath:           getEnv("LOG_PATH", filepath.Join("logs", "geministream.log")),
		LogMaxSize:        getEnvInt("LOG_MAX_SIZE", 10),
		LogMaxBackups:     getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAge:         getEnvInt("LOG_MAX_AGE", 7),
		SettingsBackend:   strings.ToLower(getEnv("SETTINGS_BACKEND", "file")),
		SettingsPath:      getEnv("SETTINGS_PATH", defaultSettingsPath()),
		SettingsSecret:    getEnv("SETTINGS_SECRET", ""),
		RedisHost:         getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:         getEnv("REDIS_PORT", "6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""), // no password by default
		RedisDB:           getEnvInt("REDIS_DB", 0),
		HTTPTimeout:       getEnvDuration("HTTP_TIMEOUT", 10*time.Second),
		LrcLibURL:         getEnv("LRCLIB_URL", "https://lrclib.net"),
		PlayerPath:        getEnv("PLAYER_PATH", "ffplay"),
		CastRelayURL:      getEnv("CAST_RELAY_URL", ""),
		CastSettleDelay:   getEnvDuration("CAST_SETTLE_DELAY", 2*time.Second),
		PublishNowPlaying: getEnvBool("PUBLISH_NOW_PLAYING", false),
	}
}

// UsesRedis reports whether any component needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.SettingsBackend == "redis" || c.PublishNowPlaying
}
