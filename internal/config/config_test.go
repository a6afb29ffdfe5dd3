package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if err := config.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if config.HTTP.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", config.HTTP.Port)
	}
	if config.Database.Path == "" {
		t.Error("Default database path should be set")
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"zero database timeout", func(c *Config) { c.Database.Timeout = 0 }},
		{"port too small", func(c *Config) { c.HTTP.Port = 0 }},
		{"port too large", func(c *Config) { c.HTTP.Port = 70000 }},
		{"empty host", func(c *Config) { c.HTTP.Host = "" }},
		{"zero read timeout", func(c *Config) { c.HTTP.ReadTimeout = 0 }},
		{"zero ping interval", func(c *Config) { c.WebSocket.PingInterval = 0 }},
		{"zero buffer size", func(c *Config) { c.WebSocket.BufferSize = 0 }},
		{"empty token secret", func(c *Config) { c.Auth.TokenSecret = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.mutate(config)
			if err := config.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CLASSBOARD_HTTP_PORT", "9090")
	t.Setenv("CLASSBOARD_DATABASE_PATH", "/tmp/env.db")
	t.Setenv("CLASSBOARD_TOKEN_SECRET", "env-secret")
	t.Setenv("CLASSBOARD_WEBSOCKET_PING_INTERVAL", "45s")

	config := LoadFromEnv()

	if config.HTTP.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", config.HTTP.Port)
	}
	if config.Database.Path != "/tmp/env.db" {
		t.Errorf("Expected env database path, got %s", config.Database.Path)
	}
	if config.Auth.TokenSecret != "env-secret" {
		t.Errorf("Expected env token secret, got %s", config.Auth.TokenSecret)
	}
	if config.WebSocket.PingInterval != 45*time.Second {
		t.Errorf("Expected 45s ping interval, got %v", config.WebSocket.PingInterval)
	}
}

func TestLoadFromEnv_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("CLASSBOARD_HTTP_PORT", "not-a-number")
	t.Setenv("CLASSBOARD_HTTP_READ_TIMEOUT", "not-a-duration")

	config := LoadFromEnv()

	if config.HTTP.Port != 8080 {
		t.Errorf("Invalid port should keep the default, got %d", config.HTTP.Port)
	}
	if config.HTTP.ReadTimeout != 30*time.Second {
		t.Errorf("Invalid duration should keep the default, got %v", config.HTTP.ReadTimeout)
	}
}

func TestLoadFromFile_OverridesEnv(t *testing.T) {
	t.Setenv("CLASSBOARD_HTTP_PORT", "9090")

	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"http": {"port": 7070, "read_timeout": "15s"},
		"auth": {"token_secret": "file-secret"}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.HTTP.Port != 7070 {
		t.Errorf("File should override env, got port %d", config.HTTP.Port)
	}
	if config.HTTP.ReadTimeout != 15*time.Second {
		t.Errorf("Expected 15s read timeout, got %v", config.HTTP.ReadTimeout)
	}
	if config.Auth.TokenSecret != "file-secret" {
		t.Errorf("Expected file token secret, got %s", config.Auth.TokenSecret)
	}
	// Fields absent from the file keep their env/default values.
	if config.HTTP.WriteTimeout != 30*time.Second {
		t.Errorf("Unset file field should keep default, got %v", config.HTTP.WriteTimeout)
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	if _, err := LoadFromFile("/no/such/config.json"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadFromFile_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte("{not json"), 0o644)

	if _, err := LoadFromFile(path); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestLoadWithPrecedence_FallsBackOnBadFile(t *testing.T) {
	t.Setenv("CLASSBOARD_HTTP_PORT", "9090")

	config := LoadWithPrecedence("/no/such/config.json")
	if config.HTTP.Port != 9090 {
		t.Errorf("Expected env fallback, got port %d", config.HTTP.Port)
	}
}
