package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database DatabasesConfig `mapstructure:"database"`
	Storage  StorageConfig   `mapstructure:"storage"`
	Audit    AuditConfig     `mapstructure:"audit"`
	Notifier NotifierConfig  `mapstructure:"notifier"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
	Logging  LoggingConfig   `mapstructure:"logging"`
	Security SecurityConfig  `mapstructure:"security"`
	CORS     CORSConfig      `mapstructure:"cors"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Hostname     string        `mapstructure:"hostname"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`
}

// DatabasesConfig holds all database configurations
type DatabasesConfig struct {
	Consent DatabaseConfig `mapstructure:"consent"`
}

// DatabaseConfig holds individual database configuration
type DatabaseConfig struct {
	Type            string        `mapstructure:"type"`
	Hostname        string        `mapstructure:"hostname"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// GetDSN builds the MySQL DSN for this database
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.User, c.Password, c.Hostname, c.Port, c.Database)
}

// StorageConfig holds the consent cookie configuration
type StorageConfig struct {
	CookieName        string `mapstructure:"cookie_name"`
	CookieLifetime    int    `mapstructure:"cookie_lifetime"` // days
	CookiePath        string `mapstructure:"cookie_path"`
	CookieDomain      string `mapstructure:"cookie_domain"`
	CookieSecure      bool   `mapstructure:"cookie_secure"`
	CookieHTTPOnly    bool   `mapstructure:"cookie_http_only"`
	CookieSameSite    string `mapstructure:"cookie_same_site"` // lax, strict or none
	SessionCookieName string `mapstructure:"session_cookie_name"`
}

// AuditConfig holds consent logging configuration
type AuditConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	LogIPAddress bool `mapstructure:"log_ip_address"`
	LogUserAgent bool `mapstructure:"log_user_agent"`
	AnonymizeIP  bool `mapstructure:"anonymize_ip"`
}

// NotifierConfig holds the consent-change notification configuration.
// Notification is disabled when RedisURL is empty.
type NotifierConfig struct {
	RedisURL string `mapstructure:"redis_url"`
	Channel  string `mapstructure:"channel"`
}

// MetricsConfig holds Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	BasicAuth BasicAuthConfig `mapstructure:"basic_auth"`
}

// BasicAuthConfig holds basic authentication configuration for the admin API
type BasicAuthConfig struct {
	Enabled bool            `mapstructure:"enabled"`
	Users   []BasicAuthUser `mapstructure:"users"`
}

// BasicAuthUser represents a basic auth user
type BasicAuthUser struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

var globalConfig *Config

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("deployment")
		v.SetConfigType("yaml")
		v.AddConfigPath("./repository/conf")
		v.AddConfigPath("./cmd/server/repository/conf")
		v.AddConfigPath("../repository/conf")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("MASILIA_CONSENT")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	globalConfig = &config
	return &config, nil
}

// Get returns the loaded global configuration, or nil before Load succeeds
func Get() *Config {
	return globalConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.hostname", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.readTimeout", 15*time.Second)
	v.SetDefault("server.writeTimeout", 15*time.Second)
	v.SetDefault("server.idleTimeout", 60*time.Second)

	v.SetDefault("database.consent.type", "mysql")
	v.SetDefault("database.consent.port", 3306)
	v.SetDefault("database.consent.max_open_conns", 25)
	v.SetDefault("database.consent.max_idle_conns", 5)
	v.SetDefault("database.consent.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("storage.cookie_name", "masilia_consent")
	v.SetDefault("storage.cookie_lifetime", 365)
	v.SetDefault("storage.cookie_path", "/")
	v.SetDefault("storage.cookie_secure", true)
	v.SetDefault("storage.cookie_http_only", true)
	v.SetDefault("storage.cookie_same_site", "lax")
	v.SetDefault("storage.session_cookie_name", "masilia_session")

	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.log_ip_address", true)
	v.SetDefault("audit.log_user_agent", true)
	v.SetDefault("audit.anonymize_ip", false)

	v.SetDefault("notifier.channel", "masilia:consent:changed")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Consent.Hostname == "" {
		return fmt.Errorf("database hostname is required")
	}

	if config.Database.Consent.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if config.Storage.CookieName == "" {
		return fmt.Errorf("consent cookie name is required")
	}

	if config.Storage.CookieLifetime <= 0 {
		return fmt.Errorf("consent cookie lifetime must be positive, got %d", config.Storage.CookieLifetime)
	}

	switch config.Storage.CookieSameSite {
	case "lax", "strict", "none":
	default:
		return fmt.Errorf("invalid cookie same_site value: %q", config.Storage.CookieSameSite)
	}

	if config.Security.BasicAuth.Enabled && len(config.Security.BasicAuth.Users) == 0 {
		return fmt.Errorf("basic auth is enabled but no users are configured")
	}

	return nil
}
