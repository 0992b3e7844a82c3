package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            string `yaml:"port"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // "text" (tint) or "json"
	} `yaml:"log"`
	Store struct {
		Driver string `yaml:"driver"` // memory, redis or postgres
	} `yaml:"store"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Auth struct {
		RemoteURL string `yaml:"remote_url"`
		Timeout   string `yaml:"timeout"`
		ResetTTL  string `yaml:"reset_ttl"`
	} `yaml:"auth"`
	Mail struct {
		SendGridKey string `yaml:"sendgrid_key"`
		FromName    string `yaml:"from_name"`
		FromEmail   string `yaml:"from_email"`
		ResetURL    string `yaml:"reset_url"`
	} `yaml:"mail"`
	Play struct {
		NextTaskDelay string `yaml:"next_task_delay"`
	} `yaml:"play"`
}

// Load reads YAML config from path, then applies .env and environment
// overrides. A missing file yields defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	// .env is optional
	_ = godotenv.Load()
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setFromEnv(&cfg.Server.Port, "PORT")
	setFromEnv(&cfg.Log.Level, "LOG_LEVEL")
	setFromEnv(&cfg.Store.Driver, "STORE_DRIVER")
	setFromEnv(&cfg.Redis.Addr, "REDIS_ADDR")
	setFromEnv(&cfg.Redis.Password, "REDIS_PASSWORD")
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	setFromEnv(&cfg.Postgres.URL, "POSTGRES_URL")
	setFromEnv(&cfg.Auth.RemoteURL, "AUTH_REMOTE_URL")
	setFromEnv(&cfg.Mail.SendGridKey, "SENDGRID_API_KEY")
}

func setFromEnv(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Store.Driver == "" {
		switch {
		case cfg.Postgres.URL != "":
			cfg.Store.Driver = "postgres"
		case cfg.Redis.Addr != "":
			cfg.Store.Driver = "redis"
		default:
			cfg.Store.Driver = "memory"
		}
	}
	if cfg.Mail.FromName == "" {
		cfg.Mail.FromName = "Lernapp"
	}
	if cfg.Mail.FromEmail == "" {
		cfg.Mail.FromEmail = "no-reply@lernapp.local"
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
