package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port           string   `mapstructure:"port"`
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"server"`
	Database struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"database"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	JWT struct {
		Secret string `mapstructure:"secret"`
	} `mapstructure:"jwt"`
	Match struct {
		MinBaseMs   int64 `mapstructure:"min_base_ms"`
		MaxBaseMs   int64 `mapstructure:"max_base_ms"`
		MinIncMs    int64 `mapstructure:"min_inc_ms"`
		MaxIncMs    int64 `mapstructure:"max_inc_ms"`
		ValidateFEN bool  `mapstructure:"validate_fen"`
	} `mapstructure:"match"`
	Record struct {
		Backend    string `mapstructure:"backend"` // memory | redis | postgres
		TTLSeconds int    `mapstructure:"ttl_seconds"`
		QueueSize  int    `mapstructure:"queue_size"`
	} `mapstructure:"record"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

var C Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("match.min_base_ms", 60_000)
	v.SetDefault("match.max_base_ms", 10_800_000)
	v.SetDefault("match.min_inc_ms", 0)
	v.SetDefault("match.max_inc_ms", 180_000)
	v.SetDefault("match.validate_fen", false)
	v.SetDefault("record.backend", "memory")
	v.SetDefault("record.ttl_seconds", 86_400)
	v.SetDefault("record.queue_size", 256)
	v.SetDefault("log.level", "info")
}

// Load reads the config file at path into C. Environment variables prefixed
// with BLITZ_ override file values (BLITZ_REDIS_ADDR -> redis.addr).
// A missing file is not an error; defaults and env still apply.
func Load(path string) error {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("BLITZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	// a zero maximum leaves the range open
	if cfg.Match.MaxBaseMs != 0 && cfg.Match.MinBaseMs > cfg.Match.MaxBaseMs {
		return fmt.Errorf("match.min_base_ms %d exceeds match.max_base_ms %d", cfg.Match.MinBaseMs, cfg.Match.MaxBaseMs)
	}
	if cfg.Match.MaxIncMs != 0 && cfg.Match.MinIncMs > cfg.Match.MaxIncMs {
		return fmt.Errorf("match.min_inc_ms %d exceeds match.max_inc_ms %d", cfg.Match.MinIncMs, cfg.Match.MaxIncMs)
	}
	switch cfg.Record.Backend {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("unknown record.backend %q", cfg.Record.Backend)
	}
	C = cfg
	return nil
}
