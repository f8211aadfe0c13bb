package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port           int           `envconfig:"PORT" default:"8080"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL    string        `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns     int32         `envconfig:"DB_MAX_CONNS" default:"0"`
	MigrateOnStart bool          `envconfig:"MIGRATE_ON_START" default:"true"`
	Version        string        `envconfig:"VERSION" default:"dev"`
	JWTSecret      string        `envconfig:"JWT_SECRET" required:"true"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	BcryptCost     int           `envconfig:"BCRYPT_COST" default:"12"`
	AdminEmail     string        `envconfig:"ADMIN_EMAIL" default:""`
	AdminPassword  string        `envconfig:"ADMIN_PASSWORD" default:""`
	SecureCookie   bool          `envconfig:"SECURE_COOKIE" default:"true"`
	LoginPath      string        `envconfig:"LOGIN_PATH" default:"/login"`
	HomePath       string        `envconfig:"HOME_PATH" default:"/"`
	RegisterRate   int           `envconfig:"REGISTER_RATE" default:"5"`
	RegisterBurst  int           `envconfig:"REGISTER_BURST" default:"3"`
	DateLayout     string        `envconfig:"DATE_LAYOUT" default:"1/2/2006"`
	TimeZone       string        `envconfig:"TIME_ZONE" default:"UTC"`
	ExpiryInterval time.Duration `envconfig:"EXPIRY_INTERVAL" default:"1h"`
	TrustProxy     bool          `envconfig:"TRUST_PROXY_HEADERS" default:"false"`
	CORSOrigins    []string      `envconfig:"CORS_ORIGINS"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.RegisterRate <= 0 || c.RegisterBurst <= 0 {
		return fmt.Errorf("REGISTER_RATE and REGISTER_BURST must be positive")
	}
	if c.ExpiryInterval < 0 {
		return fmt.Errorf("EXPIRY_INTERVAL must not be negative")
	}
	for i, o := range c.CORSOrigins {
		o = strings.TrimSpace(o)
		c.CORSOrigins[i] = o
		if o == "" || o == "*" {
			return fmt.Errorf("CORS_ORIGINS must list origins explicitly when cookies are used")
		}
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("TIME_ZONE: %w", err)
	}
	return nil
}

// Location returns the configured display time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
