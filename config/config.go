package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Values are loaded by Viper from a config file and/or environment variables.
type Config struct {
	ModrinthAPIKey   string `mapstructure:"MODRINTH_API_KEY"`
	CurseForgeAPIKey string `mapstructure:"CURSEFORGE_API_KEY"`
	UserAgent        string `mapstructure:"USERAGENT"`
	DataDir          string `mapstructure:"DATA_DIR"`
	DatabasePath     string `mapstructure:"-"` // Not from env, derived
	CachePath        string `mapstructure:"-"` // Not from env, derived

	SyncIntervalMinutes   int `mapstructure:"SYNC_INTERVAL_MINUTES"`
	SyncLimit             int `mapstructure:"SYNC_LIMIT"`
	SearchCacheTTLMinutes int `mapstructure:"SEARCH_CACHE_TTL_MINUTES"`
	StaleAfterHours       int `mapstructure:"STALE_AFTER_HOURS"`
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)   // Path to look for the config file in
	viper.SetConfigName(".env") // Name of config file (without extension)
	viper.SetConfigType("env")  // REQUIRED if the config file does not have the extension in the name

	vip_err := viper.ReadInConfig()
	if _, ok := vip_err.(viper.ConfigFileNotFoundError); ok {
		slog.Info("Config file (.env) not found, relying on environment variables.")
	} else if vip_err != nil {
		return Config{}, fmt.Errorf("fatal error config file: %w", vip_err)
	}

	// Bind environment variables automatically.
	// Viper will check for an environment variable matching the key name (e.g., CURSEFORGE_API_KEY)
	viper.AutomaticEnv()

	for key, env := range map[string]string{
		"modrinth_api_key":         "MODRINTH_API_KEY",
		"curseforge_api_key":       "CURSEFORGE_API_KEY",
		"useragent":                "USERAGENT",
		"data_dir":                 "DATA_DIR",
		"sync_interval_minutes":    "SYNC_INTERVAL_MINUTES",
		"sync_limit":               "SYNC_LIMIT",
		"search_cache_ttl_minutes": "SEARCH_CACHE_TTL_MINUTES",
		"stale_after_hours":        "STALE_AFTER_HOURS",
	} {
		if bind_err := viper.BindEnv(key, env); bind_err != nil {
			slog.Warn("Unable to bind env var", "key", env, "error", bind_err)
		}
	}

	// Unmarshal the config
	vip_err = viper.Unmarshal(&config)
	if vip_err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct, %w", vip_err)
	}

	processConfigDefaults(&config)

	if err := validateAndEnsureDirectories(&config); err != nil {
		return Config{}, err
	}

	// Derive storage paths (keep everything under the data dir for portability)
	config.DatabasePath = filepath.Join(config.DataDir, "catalog.db")
	config.CachePath = filepath.Join(config.DataDir, "search-cache")

	return config, nil
}

// processConfigDefaults fills in defaults for values that were not provided.
func processConfigDefaults(cfg *Config) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "mod-aggregator/dev (unknown-user)"
		slog.Warn("USERAGENT not set in config or environment, using default.")
	}
	if cfg.SyncIntervalMinutes <= 0 {
		cfg.SyncIntervalMinutes = 360 // Six hours between scheduled platform syncs
	}
	if cfg.SyncLimit <= 0 {
		cfg.SyncLimit = 50
	}
	if cfg.SearchCacheTTLMinutes <= 0 {
		cfg.SearchCacheTTLMinutes = 5 // Freshness matters more than hit rate here
	}
	if cfg.StaleAfterHours <= 0 {
		cfg.StaleAfterHours = 24
	}
}

// validateAndEnsureDirectories checks required settings and creates the data directory.
func validateAndEnsureDirectories(cfg *Config) error {
	if cfg.DataDir == "" {
		slog.Error("DATA_DIR is not set")
		return fmt.Errorf("DATA_DIR is required")
	}
	if _, err := os.Stat(cfg.DataDir); os.IsNotExist(err) {
		slog.Info("Data directory does not exist, creating it", "path", cfg.DataDir)
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			slog.Error("Failed to create data directory", "path", cfg.DataDir, "error", err)
			return err
		}
	} else if err != nil {
		slog.Error("Failed to check data directory", "path", cfg.DataDir, "error", err)
		return err
	}
	return nil
}
