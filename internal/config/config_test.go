package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobradar/internal/filter"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "DATABASE_URL", "REDIS_URL",
		"RABBITMQ_URL", "JOBS_STORE", "LOG_LEVEL", "PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join("testdata", "valid.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/jobradar/jobs.json", cfg.Storage.Path)
	assert.Equal(t, "window.JOBS_DATA", cfg.Storage.GlobalVar)
	assert.Equal(t, 5*time.Minute, cfg.Storage.LockTTL)
	assert.Equal(t, 3, cfg.Filter.WindowDays)
	assert.Equal(t, 4, cfg.Filter.MaxExperienceYears)
	assert.Equal(t, []string{"data engineer"}, cfg.Filter.Keywords.Include)
	assert.Equal(t, filter.DefaultKeywords().Exclude, cfg.Filter.Keywords.Exclude)
	assert.Equal(t, []string{"amazon", "microsoft"}, cfg.EnabledSources())
	assert.Equal(t, 5, cfg.Telegram.MaxMessages)
	assert.False(t, cfg.Telegram.Enabled())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "ui/jobs.json", cfg.Storage.Path)
	assert.Equal(t, filter.DefaultWindowDays, cfg.Filter.WindowDays)
	assert.Equal(t, filter.DefaultMaxExperienceYears, cfg.Filter.MaxExperienceYears)
	assert.Equal(t, filter.DefaultKeywords(), cfg.Filter.Keywords)
	assert.Equal(t, 20, cfg.Telegram.MaxMessages)
	assert.Equal(t, "jobradar:jobs", cfg.Redis.Key)
	assert.Equal(t, "jobradar.batches", cfg.RabbitMQ.Queue)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Empty(t, cfg.EnabledSources())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200")
	t.Setenv("JOBS_STORE", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("PORT", "7000")

	cfg, err := Load(filepath.Join("testdata", "valid.yaml"))
	require.NoError(t, err)

	assert.True(t, cfg.Telegram.Enabled())
	assert.Equal(t, int64(-100200), cfg.Telegram.ChatID)
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		env       map[string]string
		errString string
	}{
		{
			name:      "malformed yaml",
			path:      "malformed.yaml",
			errString: "parse",
		},
		{
			name:      "unknown backend",
			path:      "invalid_backend.yaml",
			errString: "invalid config",
		},
		{
			name:      "postgres without url",
			path:      "valid.yaml",
			env:       map[string]string{"JOBS_STORE": "postgres"},
			errString: "DATABASE_URL is required",
		},
		{
			name:      "bad chat id",
			path:      "valid.yaml",
			env:       map[string]string{"TELEGRAM_CHAT_ID": "not-a-number"},
			errString: "TELEGRAM_CHAT_ID",
		},
		{
			name:      "bad port",
			path:      "valid.yaml",
			env:       map[string]string{"PORT": "eighty"},
			errString: "PORT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load(filepath.Join("testdata", tt.path))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errString)
			assert.Nil(t, cfg)
		})
	}
}
