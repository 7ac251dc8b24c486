package config

import (
	"errors"
	"sync"

	"github.com/spf13/viper"
)

type Config struct {
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`
	Port     string `mapstructure:"port"`
	APIToken string `mapstructure:"api_token"`

	// Storage
	StorageBackend string `mapstructure:"storage_backend"` // file | postgres
	PostgresDSN    string `mapstructure:"postgres_dsn"`
	EventsFile     string `mapstructure:"events_file"`
	ProfilesFile   string `mapstructure:"profiles_file"`
	BlacklistFile  string `mapstructure:"blacklist_file"`
	UploadsFile    string `mapstructure:"uploads_file"`
	BackupDir      string `mapstructure:"backup_dir"`

	// Ingestion. TimezoneOffset is the number of hours subtracted from the
	// parsed wall-clock time; WeightTolerance is the matching band in lbs.
	TimezoneOffset  int     `mapstructure:"timezone_offset"`
	WeightTolerance float64 `mapstructure:"weight_tolerance"`
}

var (
	cfg  *Config
	once sync.Once
)

// Load reads config.yaml (if present) and the environment, once per process.
func Load() (*Config, error) {
	var err error
	once.Do(func() {
		cfg, err = load()
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("port", "8088")
	v.SetDefault("api_token", "")
	v.SetDefault("storage_backend", "file")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("events_file", "data/events.json")
	v.SetDefault("profiles_file", "data/profiles.json")
	v.SetDefault("blacklist_file", "data/blacklist.json")
	v.SetDefault("uploads_file", "data/uploads.json")
	v.SetDefault("backup_dir", "data/backups")
	v.SetDefault("timezone_offset", 5)
	v.SetDefault("weight_tolerance", 2.0)

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.StorageBackend != "file" && c.StorageBackend != "postgres" {
		return errors.New("STORAGE_BACKEND must be one of: file, postgres")
	}
	if c.StorageBackend == "postgres" && c.PostgresDSN == "" {
		return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
	}
	if c.StorageBackend == "file" && (c.EventsFile == "" || c.ProfilesFile == "" || c.BlacklistFile == "" || c.UploadsFile == "") {
		return errors.New("file storage requires EVENTS_FILE, PROFILES_FILE, BLACKLIST_FILE and UPLOADS_FILE")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	if c.WeightTolerance <= 0 {
		return errors.New("WEIGHT_TOLERANCE must be positive")
	}
	return nil
}
