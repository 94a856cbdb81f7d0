// Load envs from .env
// Load YAML config
// Apply env overrides and defaults
// Validate config

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go-jobradar/internal/filter"
	"go-jobradar/internal/logger"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Storage   Storage       `yaml:"storage"`
	Filter    Filter        `yaml:"filter"`
	Sources   Sources       `yaml:"sources"`
	Transport Transport     `yaml:"transport"`
	Telegram  Telegram      `yaml:"telegram"`
	Redis     Redis         `yaml:"redis"`
	Database  Database      `yaml:"database"`
	RabbitMQ  RabbitMQ      `yaml:"rabbitmq"`
	Logging   logger.Config `yaml:"logging"`
	Server    Server        `yaml:"server"`
}

type Storage struct {
	Backend   string        `yaml:"backend" validate:"oneof=file postgres redis"`
	Path      string        `yaml:"path" validate:"required"`
	GlobalVar string        `yaml:"global_var" validate:"required"`
	LockTTL   time.Duration `yaml:"lock_ttl"`
	// LockWait bounds how long a writer waits for another writer to finish.
	LockWait time.Duration `yaml:"lock_wait"`
}

type Filter struct {
	WindowDays         int             `yaml:"window_days" validate:"min=1"`
	MaxExperienceYears int             `yaml:"max_experience_years" validate:"min=1"`
	Keywords           filter.Keywords `yaml:"keywords"`
}

type Source struct {
	Enabled bool   `yaml:"enabled"`
	Query   string `yaml:"query"`
	URL     string `yaml:"url" validate:"omitempty,url"`
}

type Sources struct {
	Amazon    Source `yaml:"amazon"`
	CVS       Source `yaml:"cvs"`
	JPMC      Source `yaml:"jpmc"`
	Microsoft Source `yaml:"microsoft"`
}

type Transport struct {
	Timeout     time.Duration `yaml:"timeout"`
	UserAgent   string        `yaml:"user_agent"`
	Browser     bool          `yaml:"browser"`
	Headless    bool          `yaml:"headless"`
	CookieFiles []string      `yaml:"cookie_files"`
	WarmupURLs  []string      `yaml:"warmup_urls" validate:"dive,url"`
	MinDelayMs  int           `yaml:"min_delay_ms" validate:"min=0"`
	MaxDelayMs  int           `yaml:"max_delay_ms" validate:"gtefield=MinDelayMs"`

	// ScreenshotDir, when set, keeps screenshots of failed warm-up pages.
	ScreenshotDir string `yaml:"screenshot_dir"`
}

type Telegram struct {
	Token       string `yaml:"token"`
	ChatID      int64  `yaml:"chat_id"`
	MaxMessages int    `yaml:"max_messages" validate:"min=0"`
}

// Enabled is true when both token and chat id are set.
func (t Telegram) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

type Redis struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"`
}

type Database struct {
	URL string `yaml:"url"`
}

type RabbitMQ struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

type Server struct {
	Port    int    `yaml:"port" validate:"min=1,max=65535"`
	UIDir   string `yaml:"ui_dir"`
	GinMode string `yaml:"gin_mode" validate:"omitempty,oneof=debug release test"`
}

// Load reads path (a missing file falls back to defaults), applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Warn("Config file not found, using defaults", "path", path)
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Telegram.Token = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		c.RabbitMQ.URL = v
	}
	if v := os.Getenv("JOBS_STORE"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "ui/jobs.json"
	}
	if c.Storage.GlobalVar == "" {
		c.Storage.GlobalVar = "window.JOBS_DATA"
	}
	if c.Storage.LockTTL == 0 {
		c.Storage.LockTTL = 10 * time.Minute
	}
	if c.Storage.LockWait == 0 {
		c.Storage.LockWait = 2 * time.Minute
	}

	if c.Filter.WindowDays == 0 {
		c.Filter.WindowDays = filter.DefaultWindowDays
	}
	if c.Filter.MaxExperienceYears == 0 {
		c.Filter.MaxExperienceYears = filter.DefaultMaxExperienceYears
	}
	c.Filter.Keywords = c.Filter.Keywords.Merge(filter.DefaultKeywords())

	if c.Transport.Timeout == 0 {
		c.Transport.Timeout = 30 * time.Second
	}

	if c.Telegram.MaxMessages == 0 {
		c.Telegram.MaxMessages = 20
	}
	if c.Redis.Key == "" {
		c.Redis.Key = "jobradar:jobs"
	}
	if c.RabbitMQ.Queue == "" {
		c.RabbitMQ.Queue = "jobradar.batches"
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.UIDir == "" {
		c.Server.UIDir = "ui"
	}
}

// Validate checks field rules and the URLs each backend needs.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	switch c.Storage.Backend {
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("invalid config: DATABASE_URL is required for the postgres backend")
		}
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("invalid config: REDIS_URL is required for the redis backend")
		}
	}
	return nil
}

// EnabledSources lists source names switched on in the config, in fixed order.
func (c *Config) EnabledSources() []string {
	var names []string
	for _, s := range []struct {
		name string
		src  Source
	}{
		{"amazon", c.Sources.Amazon},
		{"cvs", c.Sources.CVS},
		{"jpmc", c.Sources.JPMC},
		{"microsoft", c.Sources.Microsoft},
	} {
		if s.src.Enabled {
			names = append(names, s.name)
		}
	}
	return names
}
