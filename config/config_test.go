package config

import (
	"testing"
	"time"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("GS_TEST_STR", "value")
	t.Setenv("GS_TEST_INT", "42")
	t.Setenv("GS_TEST_BAD_INT", "forty")
	t.Setenv("GS_TEST_BOOL", "true")
	t.Setenv("GS_TEST_DUR", "1500ms")
	t.Setenv("GS_TEST_BAD_DUR", "soon")

	if got := getEnv("GS_TEST_STR", "x"); got != "value" {
		t.Errorf("getEnv = %q", got)
	}
	if got := getEnv("GS_TEST_UNSET", "x"); got != "x" {
		t.Errorf("getEnv fallback = %q", got)
	}
	if got := getEnvInt("GS_TEST_INT", 1); got != 42 {
		t.Errorf("getEnvInt = %d", got)
	}
	if got := getEnvInt("GS_TEST_BAD_INT", 1); got != 1 {
		t.Errorf("getEnvInt on bad value = %d, want fallback", got)
	}
	if got := getEnvBool("GS_TEST_BOOL", false); !got {
		t.Errorf("getEnvBool = false")
	}
	if got := getEnvDuration("GS_TEST_DUR", time.Second); got != 1500*time.Millisecond {
		t.Errorf("getEnvDuration = %v", got)
	}
	if got := getEnvDuration("GS_TEST_BAD_DUR", time.Second); got != time.Second {
		t.Errorf("getEnvDuration on bad value = %v, want fallback", got)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("SETTINGS_BACKEND", "REDIS")
	t.Setenv("CAST_SETTLE_DELAY", "3s")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg := Load()
	if cfg.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.SettingsBackend != "redis" {
		t.Errorf("SettingsBackend = %q, want lower-cased", cfg.SettingsBackend)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.CastSettleDelay != 3*time.Second {
		t.Errorf("CastSettleDelay = %v", cfg.CastSettleDelay)
	}
	if cfg.PlayerPath == "" || cfg.SettingsPath == "" {
		t.Errorf("missing defaults: %+v", cfg)
	}
}

func TestUsesRedis(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"file", Config{SettingsBackend: "file"}, false},
		{"redis settings", Config{SettingsBackend: "redis"}, true},
		{"now playing", Config{SettingsBackend: "file", PublishNowPlaying: true}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.UsesRedis(); got != tc.want {
				t.Fatalf("UsesRedis = %v, want %v", got, tc.want)
			}
		})
	}
}
