package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	ContentStoreURL   string        `mapstructure:"CONTENT_STORE_URL"`
	LedgerGatewayURL  string        `mapstructure:"LEDGER_GATEWAY_URL"`
	LedgerTimeout     time.Duration `mapstructure:"LEDGER_TIMEOUT"`
	LedgerSenderKey   string        `mapstructure:"LEDGER_SENDER_KEY"`
	AuthSigningKey    string        `mapstructure:"AUTH_SIGNING_KEY"`
	AuthJWKSURL       string        `mapstructure:"AUTH_JWKS_URL"`
	AuthIssuer        string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience      string        `mapstructure:"AUTH_AUDIENCE"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS      float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int           `mapstructure:"RATE_LIMIT_BURST"`
	ReconcileInterval time.Duration `mapstructure:"RECONCILE_INTERVAL"`
	MaxUploadBytes    int64         `mapstructure:"MAX_UPLOAD_BYTES"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("LEDGER_TIMEOUT", "30s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("RECONCILE_INTERVAL", "5m")
	v.SetDefault("MAX_UPLOAD_BYTES", 25*1024*1024)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CONTENT_STORE_URL")
	v.BindEnv("LEDGER_GATEWAY_URL")
	v.BindEnv("LEDGER_TIMEOUT")
	v.BindEnv("LEDGER_SENDER_KEY")
	v.BindEnv("AUTH_SIGNING_KEY")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("RECONCILE_INTERVAL")
	v.BindEnv("MAX_UPLOAD_BYTES")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active and in-memory content/ledger fakes are used.")
		log.Println("WARNING: set ENV=production, AUTH_SIGNING_KEY, CONTENT_STORE_URL and LEDGER_GATEWAY_URL for production.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. In production the
// external authorization ledger and content store endpoints are mandatory:
// without them every privileged decision would fall back to in-process fakes,
// which must never happen outside development.
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.AuthSigningKey == "" && c.AuthJWKSURL == "" {
			return fmt.Errorf("AUTH_SIGNING_KEY or AUTH_JWKS_URL is required in production")
		}
		if c.LedgerGatewayURL == "" {
			return fmt.Errorf("LEDGER_GATEWAY_URL is required in production")
		}
		if c.ContentStoreURL == "" {
			return fmt.Errorf("CONTENT_STORE_URL is required in production")
		}
	}
	if c.LedgerTimeout <= 0 {
		return fmt.Errorf("LEDGER_TIMEOUT must be positive, got %s", c.LedgerTimeout)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}
