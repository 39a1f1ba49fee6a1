package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// BackendType selects where lists are persisted
type BackendType string

const (
	BackendLocal  BackendType = "local"
	BackendRemote BackendType = "remote"
)

// Config holds all application configuration
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Session SessionConfig `mapstructure:"session"`
	TMDB    TMDBConfig    `mapstructure:"tmdb"`
	Import  ImportConfig  `mapstructure:"import"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// StorageConfig holds persistence backend configuration
type StorageConfig struct {
	Backend      BackendType   `mapstructure:"backend"` // "local" or "remote"
	Local        LocalConfig   `mapstructure:"local"`
	Remote       RemoteConfig  `mapstructure:"remote"`
	LoadTimeout  time.Duration `mapstructure:"load_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LocalConfig holds the blob store location
type LocalConfig struct {
	Dir      string `mapstructure:"dir"`       // Empty keeps lists in memory only
	PerActor bool   `mapstructure:"per_actor"` // Separate namespace per actor instead of one shared
}

// RemoteConfig holds the row store connection
type RemoteConfig struct {
	Driver string `mapstructure:"driver"` // pgx, sqlite or sqlite3
	DSN    string `mapstructure:"dsn"`
}

// SessionConfig holds the signed-in actor
type SessionConfig struct {
	ActorID string `mapstructure:"actor_id"` // Empty is the anonymous actor
}

// TMDBConfig holds metadata provider configuration
type TMDBConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries uint          `mapstructure:"retries"`
}

// ImportConfig holds bulk import configuration
type ImportConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:      BackendLocal,
			Local:        LocalConfig{Dir: defaultDataPath()},
			Remote:       RemoteConfig{Driver: "pgx"},
			LoadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		TMDB: TMDBConfig{
			BaseURL: "https://api.themoviedb.org/3",
			Timeout: 15 * time.Second,
			Retries: 3,
		},
		Import: ImportConfig{Concurrency: 4},
		Logging: LoggingConfig{
			File:       filepath.Join(defaultDataPath(), "moviebase.log"),
			Level:      "INFO",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "moviebase")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "moviebase")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "moviebase")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "moviebase")
	}
}

// setDefaults registers every key so environment overrides reach Unmarshal
func setDefaults(cfg *Config) {
	viper.SetDefault("storage.backend", string(cfg.Storage.Backend))
	viper.SetDefault("storage.local.dir", cfg.Storage.Local.Dir)
	viper.SetDefault("storage.local.per_actor", cfg.Storage.Local.PerActor)
	viper.SetDefault("storage.remote.driver", cfg.Storage.Remote.Driver)
	viper.SetDefault("storage.remote.dsn", cfg.Storage.Remote.DSN)
	viper.SetDefault("storage.load_timeout", cfg.Storage.LoadTimeout)
	viper.SetDefault("storage.write_timeout", cfg.Storage.WriteTimeout)
	viper.SetDefault("session.actor_id", cfg.Session.ActorID)
	viper.SetDefault("tmdb.api_key", cfg.TMDB.APIKey)
	viper.SetDefault("tmdb.base_url", cfg.TMDB.BaseURL)
	viper.SetDefault("tmdb.timeout", cfg.TMDB.Timeout)
	viper.SetDefault("tmdb.retries", cfg.TMDB.Retries)
	viper.SetDefault("import.concurrency", cfg.Import.Concurrency)
	viper.SetDefault("logging.file", cfg.Logging.File)
	viper.SetDefault("logging.level", cfg.Logging.Level)
	viper.SetDefault("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", cfg.Logging.MaxBackups)
	viper.SetDefault("logging.max_age_days", cfg.Logging.MaxAgeDays)
}

// LoadConfig loads configuration from file and environment. An empty path
// searches the default config directory and the working directory.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(cfg)

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(defaultConfigPath())
		viper.AddConfigPath(".")
	}

	// Environment variable overrides, e.g. MOVIEBASE_STORAGE_BACKEND
	viper.SetEnvPrefix("MOVIEBASE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if path != "" || !os.IsNotExist(err) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Storage.Local.Dir = expandHome(cfg.Storage.Local.Dir)
	cfg.Logging.File = expandHome(cfg.Logging.File)
	return cfg, nil
}

// configFile returns the file config writes go to
func configFile() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return filepath.Join(defaultConfigPath(), "config.yaml")
}

// SaveActor updates just the signed-in actor in the configuration
func SaveActor(actorID string) error {
	viper.Set("session.actor_id", actorID)

	file := configFile()
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(file); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// IsRemote reports whether lists live in the row store
func (c *Config) IsRemote() bool {
	return c.Storage.Backend == BackendRemote
}

// Validate reports configuration that cannot work
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendLocal:
	case BackendRemote:
		if c.Storage.Remote.DSN == "" {
			return fmt.Errorf("storage.remote.dsn is required for the remote backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Import.Concurrency < 1 {
		return fmt.Errorf("import.concurrency must be at least 1")
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
