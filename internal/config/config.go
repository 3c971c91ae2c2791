// This file defines the configuration structure for the application.
package config

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Provider identifiers shared by the configuration and the provider packages.
const (
	ProviderPexels  = "pexels"
	ProviderPixabay = "pixabay"
	ProviderFreepik = "freepik"
)

// Session backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// ProviderConfig holds the settings of one stock-image provider.
type ProviderConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Limit    int    `mapstructure:"limit"`
	BaseURL  string `mapstructure:"base_url"`
	Language string `mapstructure:"language"`
}

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port int `mapstructure:"port"`
	Log  struct {
		File       string `mapstructure:"file"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAgeDays int    `mapstructure:"max_age_days"`
	} `mapstructure:"log"`
	Session struct {
		Backend      string        `mapstructure:"backend"`
		Path         string        `mapstructure:"path"`
		RedisURL     string        `mapstructure:"redis_url"`
		TTL          time.Duration `mapstructure:"ttl"`
		ResetOnStart bool          `mapstructure:"reset_on_start"`
	} `mapstructure:"session"`
	Downloads struct {
		Path             string        `mapstructure:"path"`
		Retention        time.Duration `mapstructure:"retention"`
		HistoryRetention time.Duration `mapstructure:"history_retention"`
		SweepInterval    time.Duration `mapstructure:"sweep_interval"`
		ResetDelay       time.Duration `mapstructure:"reset_delay"`
		RequestInterval  time.Duration `mapstructure:"request_interval"`
	} `mapstructure:"downloads"`
	HTTP struct {
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"http"`
	Providers struct {
		Pexels  ProviderConfig `mapstructure:"pexels"`
		Pixabay ProviderConfig `mapstructure:"pixabay"`
		Freepik ProviderConfig `mapstructure:"freepik"`
	} `mapstructure:"providers"`
}

// Provider returns the settings for the named provider.
func (c *Config) Provider(name string) (ProviderConfig, bool) {
	switch name {
	case ProviderPexels:
		return c.Providers.Pexels, true
	case ProviderPixabay:
		return c.Providers.Pixabay, true
	case ProviderFreepik:
		return c.Providers.Freepik, true
	}
	return ProviderConfig{}, false
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
// A ".env" file, when present, is loaded into the environment first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	v := viper.New()
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")
	v.AddConfigPath(".")

	// --- Environment Variable Overrides ---
	// e.g., STOCKPILE_SESSION_PATH will override the `session.path` key.
	v.SetEnvPrefix("STOCKPILE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The provider keys also answer to the names the providers use in their docs.
	v.BindEnv("providers.pexels.api_key", "STOCKPILE_PROVIDERS_PEXELS_API_KEY", "PEXELS_API_KEY")
	v.BindEnv("providers.pixabay.api_key", "STOCKPILE_PROVIDERS_PIXABAY_API_KEY", "PIXABAY_API_KEY")
	v.BindEnv("providers.freepik.api_key", "STOCKPILE_PROVIDERS_FREEPIK_API_KEY", "FREEPIK_API_KEY")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error and use defaults
		} else {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)

	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 2)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("session.backend", BackendSQLite)
	v.SetDefault("session.path", "./stockpile.db")
	v.SetDefault("session.redis_url", "redis://localhost:6379/0")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.reset_on_start", true)

	v.SetDefault("downloads.path", "./downloads")
	v.SetDefault("downloads.retention", time.Hour)
	v.SetDefault("downloads.history_retention", 30*24*time.Hour)
	v.SetDefault("downloads.sweep_interval", 10*time.Minute)
	v.SetDefault("downloads.reset_delay", 5*time.Second)
	v.SetDefault("downloads.request_interval", 250*time.Millisecond)

	v.SetDefault("http.timeout", time.Duration(0))

	v.SetDefault("providers.pexels.api_key", "")
	v.SetDefault("providers.pexels.limit", 100)
	v.SetDefault("providers.pexels.base_url", "https://api.pexels.com/v1/")
	v.SetDefault("providers.pexels.language", "")

	v.SetDefault("providers.pixabay.api_key", "")
	v.SetDefault("providers.pixabay.limit", 100)
	v.SetDefault("providers.pixabay.base_url", "https://pixabay.com/api/")
	v.SetDefault("providers.pixabay.language", "")

	v.SetDefault("providers.freepik.api_key", "")
	v.SetDefault("providers.freepik.limit", 50)
	v.SetDefault("providers.freepik.base_url", "https://api.freepik.com/v1/")
	v.SetDefault("providers.freepik.language", "es-ES")
}
