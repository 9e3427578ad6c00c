// Package config loads formdesk settings from config.yaml, .env and
// FORMDESK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FORMDESK_API_URL.
const EnvPrefix = "FORMDESK"

// Draft backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

type Config struct {
	API   APIConfig   `mapstructure:"api"`
	Draft DraftConfig `mapstructure:"draft"`
	Redis RedisConfig `mapstructure:"redis"`
	Log   LogConfig   `mapstructure:"log"`
	Mock  MockConfig  `mapstructure:"mock"`
	UI    UIConfig    `mapstructure:"ui"`
}

type APIConfig struct {
	URL     string        `mapstructure:"url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DraftConfig struct {
	Backend       string        `mapstructure:"backend"`
	Dir           string        `mapstructure:"dir"`
	AutosaveDelay time.Duration `mapstructure:"autosave_delay"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MockConfig struct {
	Addr    string        `mapstructure:"addr"`
	Token   string        `mapstructure:"token"`
	Latency time.Duration `mapstructure:"latency"`
}

type UIConfig struct {
	Locale   string `mapstructure:"locale"`
	PageSize int    `mapstructure:"page_size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.url", "http://localhost:8080")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", 30*time.Second)

	v.SetDefault("draft.backend", BackendMemory)
	v.SetDefault("draft.dir", ".formdesk/drafts")
	v.SetDefault("draft.autosave_delay", time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "formdesk:")
	v.SetDefault("redis.ttl", 7*24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("mock.addr", ":8080")
	v.SetDefault("mock.token", "")
	v.SetDefault("mock.latency", time.Duration(0))

	v.SetDefault("ui.locale", "en")
	v.SetDefault("ui.page_size", 10)
}

// Load reads configuration. When path is empty config.yaml is searched in
// ./configs and the working directory; a missing file is not an error.
// Environment variables win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads the given .env files (".env" when none are given) into
// the process environment. Missing files are skipped; variables that are
// already set are kept.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", file, err)
		}
	}
	return nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	var problems []string

	switch c.Draft.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		problems = append(problems, fmt.Sprintf("draft.backend %q must be memory, file or redis", c.Draft.Backend))
	}
	if c.Draft.Backend == BackendFile && strings.TrimSpace(c.Draft.Dir) == "" {
		problems = append(problems, "draft.dir is required for the file backend")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q must be json or console", c.Log.Format))
	}
	switch c.UI.PageSize {
	case 10, 25, 50:
	default:
		problems = append(problems, fmt.Sprintf("ui.page_size %d must be 10, 25 or 50", c.UI.PageSize))
	}
	if c.API.Timeout <= 0 {
		problems = append(problems, "api.timeout must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
