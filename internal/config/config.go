package config

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// DefaultUserAgent is the default User-Agent string sent with all HTTP requests.
const DefaultUserAgent = "Subtitlarr/1.0 (+https://github.com/subtitlarr/subtitlarr)"

// Cache lifetimes applied when the config leaves them unset or unparsable.
const (
	DefaultCatalogTTL = 5 * time.Minute
	DefaultSearchTTL  = time.Hour
)

type Config struct {
	ProxyConnectionString string `mapstructure:"proxy_connection_string"`
	SearchURL             string `mapstructure:"search_url"`
	ClientTimeout         string `mapstructure:"client_timeout"` // Go duration string like "30s", "1h", etc.
	SearchTimeout         string `mapstructure:"search_timeout"` // Ceiling for upstream provider searches, default 30m
	UserAgent             string `mapstructure:"user_agent"`
	Catalog               struct {
		URL    string `mapstructure:"url"`
		APIKey string `mapstructure:"api_key"`
	} `mapstructure:"catalog"`
	Server struct {
		Port    int    `mapstructure:"port"`
		Address string `mapstructure:"address"`
	} `mapstructure:"server"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	LogLevel string `mapstructure:"log_level"`
	Cache    struct {
		Provider    string `mapstructure:"provider"` // "memory" or "redis"
		Size        int    `mapstructure:"size"`     // Maximum number of entries per cache group
		CatalogTTL  string `mapstructure:"catalog_ttl"`
		SearchTTL   string `mapstructure:"search_ttl"`
		ArchiveSize int    `mapstructure:"archive_size"` // Downloader archive cache entries
		ArchiveTTL  string `mapstructure:"archive_ttl"`
		Redis       struct {
			Address  string `mapstructure:"address"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"cache"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// CatalogTTL returns the configured catalog cache lifetime, falling back to
// DefaultCatalogTTL when unset or unparsable.
func (c *Config) CatalogTTL() time.Duration {
	return parseTTL(c.Cache.CatalogTTL, DefaultCatalogTTL)
}

// SearchTTL returns the configured search-result cache lifetime, falling back
// to DefaultSearchTTL when unset or unparsable.
func (c *Config) SearchTTL() time.Duration {
	return parseTTL(c.Cache.SearchTTL, DefaultSearchTTL)
}

func parseTTL(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

var (
	globalConfig *Config
	logger       zerolog.Logger
)

func init() {
	// Initialize zerolog with console writer for human-readable output
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stdout,
		NoColor: false,
	}).With().Timestamp().Logger()

	config, err := LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	// Parse and set log level from config
	level := zerolog.InfoLevel // default
	if config.LogLevel != "" {
		if parsedLevel, err := zerolog.ParseLevel(config.LogLevel); err == nil {
			level = parsedLevel
		} else {
			logger.Warn().Str("invalid_level", config.LogLevel).Msg("Invalid log level, using default 'info'")
		}
	}

	// Set the global log level
	zerolog.SetGlobalLevel(level)

	// Update logger with the configured level
	logger = logger.Level(level)

	logger.Info().Str("level", level.String()).Msg("Logging configured")
	globalConfig = config
	logger.Info().Msg("Configuration loaded successfully")
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.address", "localhost")
	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.port", 9090)
	viper.SetDefault("cache.provider", "memory")
	viper.SetDefault("cache.size", 1000)
	viper.SetDefault("cache.catalog_ttl", "5m")
	viper.SetDefault("cache.search_ttl", "1h")
	viper.SetDefault("cache.archive_size", 100)
	viper.SetDefault("cache.archive_ttl", "1h")

	// Environment variable support
	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Add specific environment variable for log level
	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}

	return &config, nil
}

func GetConfig() *Config {
	return globalConfig
}

func GetUserAgent() string {
	if globalConfig != nil && globalConfig.UserAgent != "" {
		return globalConfig.UserAgent
	}

	return DefaultUserAgent
}

func GetLogger() zerolog.Logger {
	return logger
}
