package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"linkkeeper/database"

	"github.com/spf13/viper"
)

// Settings backends
const (
	SettingsBackendFile     = "file"
	SettingsBackendPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken     string
	GuildID          string // Legacy single-guild mode: guild the default archive channel belongs to
	ArchiveChannelID string // Legacy single-guild mode: default archive channel

	// Settings storage
	SettingsBackend string // "file" or "postgres"
	SettingsPath    string // JSON file used by the file backend

	// Database configuration (postgres backend only)
	DatabaseURL  string
	DatabaseName string

	// NATS configuration
	NATSServers string // Empty disables event forwarding

	// Message processing
	MaxConcurrentMessages int64

	// Liveness endpoint, served on all interfaces
	HealthPort int
	// Operator debug API, served on loopback only
	DebugPort int

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"
	LogFile   string // Optional; logs are always written to stdout as well

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelServiceName          string
	OTelExportIntervalMillis int

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = Load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// Load reads configuration from the environment and an optional linkkeeper.yaml
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("SETTINGS_BACKEND", SettingsBackendFile)
	v.SetDefault("SETTINGS_PATH", "guild_settings.json")
	v.SetDefault("MAX_CONCURRENT_MESSAGES", 8)
	v.SetDefault("HEALTH_PORT", 8080)
	v.SetDefault("DEBUG_PORT", 8081)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_TYPE", "none")
	v.SetDefault("OTEL_OTLP_ENDPOINT", "otel-collector:4317")
	v.SetDefault("OTEL_SERVICE_NAME", "linkkeeper")
	v.SetDefault("OTEL_EXPORT_INTERVAL_MILLIS", 60000)
	v.SetDefault("ENVIRONMENT", "development")

	v.SetConfigName("linkkeeper")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/linkkeeper/")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Older deployments export the token as DISCORD_BOT_TOKEN
	_ = v.BindEnv("DISCORD_TOKEN", "DISCORD_TOKEN", "DISCORD_BOT_TOKEN")

	cfg := &Config{
		DiscordToken:             v.GetString("DISCORD_TOKEN"),
		GuildID:                  strings.TrimSpace(v.GetString("GUILD_ID")),
		ArchiveChannelID:         strings.TrimSpace(v.GetString("ARCHIVE_CHANNEL_ID")),
		SettingsBackend:          strings.ToLower(v.GetString("SETTINGS_BACKEND")),
		SettingsPath:             v.GetString("SETTINGS_PATH"),
		DatabaseURL:              v.GetString("DATABASE_URL"),
		DatabaseName:             v.GetString("DATABASE_NAME"),
		NATSServers:              v.GetString("NATS_SERVERS"),
		MaxConcurrentMessages:    v.GetInt64("MAX_CONCURRENT_MESSAGES"),
		HealthPort:               v.GetInt("HEALTH_PORT"),
		DebugPort:                v.GetInt("DEBUG_PORT"),
		LogLevel:                 v.GetString("LOG_LEVEL"),
		LogFormat:                v.GetString("LOG_FORMAT"),
		LogFile:                  v.GetString("LOG_FILE"),
		OTelEnabled:              v.GetBool("OTEL_ENABLED"),
		OTelExporterType:         v.GetString("OTEL_EXPORTER_TYPE"),
		OTelOTLPEndpoint:         v.GetString("OTEL_OTLP_ENDPOINT"),
		OTelServiceName:          v.GetString("OTEL_SERVICE_NAME"),
		OTelExportIntervalMillis: v.GetInt("OTEL_EXPORT_INTERVAL_MILLIS"),
		Environment:              v.GetString("ENVIRONMENT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for required and malformed values
func (c *Config) Validate() error {
	if c.Environment != "test" && c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}

	switch c.SettingsBackend {
	case SettingsBackendFile:
		if c.SettingsPath == "" {
			return fmt.Errorf("SETTINGS_PATH cannot be empty for the file settings backend")
		}
	case SettingsBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres settings backend")
		}
	default:
		return fmt.Errorf("unknown SETTINGS_BACKEND: %q", c.SettingsBackend)
	}

	if c.MaxConcurrentMessages < 1 {
		return fmt.Errorf("MAX_CONCURRENT_MESSAGES must be at least 1")
	}
	if _, err := c.LegacyArchiveChannelID(); err != nil {
		return err
	}
	if _, err := c.LegacyGuildID(); err != nil {
		return err
	}
	return nil
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// LegacyArchiveChannelID returns the default archive channel, or 0 when unset
func (c *Config) LegacyArchiveChannelID() (int64, error) {
	return parseOptionalID("ARCHIVE_CHANNEL_ID", c.ArchiveChannelID)
}

// LegacyGuildID returns the guild for legacy single-guild mode, or 0 when unset
func (c *Config) LegacyGuildID() (int64, error) {
	return parseOptionalID("GUILD_ID", c.GuildID)
}

func parseOptionalID(name, value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, value)
	}
	return id, nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		DiscordToken:          "test-token",
		SettingsBackend:       SettingsBackendFile,
		SettingsPath:          "guild_settings.json",
		MaxConcurrentMessages: 4,
		HealthPort:            8080,
		DebugPort:             8081,
		LogLevel:              "info",
		LogFormat:             "text",
		OTelExporterType:      "none",
		OTelServiceName:       "linkkeeper",
		Environment:           "test",
	}
}
