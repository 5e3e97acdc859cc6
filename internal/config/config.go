package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Store struct {
		Driver string `yaml:"driver"`
	} `yaml:"store"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Contest struct {
		SweepInterval   string `yaml:"sweepInterval"`
		CodeLength      int    `yaml:"codeLength"`
		MaxCodeAttempts int    `yaml:"maxCodeAttempts"`
		SweepLockTTL    string `yaml:"sweepLockTTL"`
	} `yaml:"contest"`
	Profile struct {
		Endpoint  string            `yaml:"endpoint"`
		Timeout   string            `yaml:"timeout"`
		TTL       string            `yaml:"ttl"`
		Usernames map[string]string `yaml:"usernames"`
	} `yaml:"profile"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Log.Level = "info"
	cfg.Store.Driver = DriverMemory
	cfg.Mongo.Database = "codeduel"
	cfg.Contest.SweepInterval = "10s"
	cfg.Contest.CodeLength = 6
	cfg.Contest.MaxCodeAttempts = 5
	cfg.Profile.Endpoint = "https://leetcode.com/graphql"
	cfg.Profile.Timeout = "5s"
	cfg.Profile.TTL = "10m"
	return cfg
}

// Load reads YAML config from path on top of the defaults. A missing file is
// not an error. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DriverMemory
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("POSTGRES_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.Mongo.URI = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return fallback
}

func (c Config) SweepInterval() time.Duration {
	return Duration(c.Contest.SweepInterval, 10*time.Second)
}

// SweepLockTTL defaults to twice the sweep interval.
func (c Config) SweepLockTTL() time.Duration {
	return Duration(c.Contest.SweepLockTTL, 2*c.SweepInterval())
}

func (c Config) ProfileTimeout() time.Duration {
	return Duration(c.Profile.Timeout, 5*time.Second)
}

func (c Config) ProfileTTL() time.Duration {
	return Duration(c.Profile.TTL, 10*time.Minute)
}
