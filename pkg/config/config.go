// Package config loads application configuration from the environment.
package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool
	JWTSecret    string
	RedisURL     string

	// Tax authority endpoints. The per-tenant SRI environment flag selects
	// between the test and production pair at call time.
	SRIReceptionURLTest     string
	SRIReceptionURLProd     string
	SRIAuthorizationURLTest string
	SRIAuthorizationURLProd string
	SignerURL               string

	StorageDir string

	// Fiscal sweeper tuning.
	SweepInterval    time.Duration
	FiscalDocTimeout time.Duration
	FiscalLockTTL    time.Duration

	// RateLimit uses the limiter formatted syntax, e.g. "100-M".
	RateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("SRI_RECEPTION_URL_TEST", "https://celcer.sri.gob.ec/comprobantes-electronicos-ws/RecepcionComprobantesOffline")
	viper.SetDefault("SRI_RECEPTION_URL_PROD", "https://cel.sri.gob.ec/comprobantes-electronicos-ws/RecepcionComprobantesOffline")
	viper.SetDefault("SRI_AUTHORIZATION_URL_TEST", "https://celcer.sri.gob.ec/comprobantes-electronicos-ws/AutorizacionComprobantesOffline")
	viper.SetDefault("SRI_AUTHORIZATION_URL_PROD", "https://cel.sri.gob.ec/comprobantes-electronicos-ws/AutorizacionComprobantesOffline")
	viper.SetDefault("SIGNER_URL", "http://localhost:8081/sign")
	viper.SetDefault("STORAGE_DIR", "./data/blobs")
	viper.SetDefault("SWEEP_INTERVAL", "5m")
	viper.SetDefault("FISCAL_DOC_TIMEOUT", "30s")
	viper.SetDefault("FISCAL_LOCK_TTL", "2m")
	viper.SetDefault("RATE_LIMIT", "300-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.RedisURL = viper.GetString("REDIS_URL")
	cfg.SRIReceptionURLTest = viper.GetString("SRI_RECEPTION_URL_TEST")
	cfg.SRIReceptionURLProd = viper.GetString("SRI_RECEPTION_URL_PROD")
	cfg.SRIAuthorizationURLTest = viper.GetString("SRI_AUTHORIZATION_URL_TEST")
	cfg.SRIAuthorizationURLProd = viper.GetString("SRI_AUTHORIZATION_URL_PROD")
	cfg.SignerURL = viper.GetString("SIGNER_URL")
	cfg.StorageDir = viper.GetString("STORAGE_DIR")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	cfg.SweepInterval = parseDurationOr("SWEEP_INTERVAL", 5*time.Minute)
	cfg.FiscalDocTimeout = parseDurationOr("FISCAL_DOC_TIMEOUT", 30*time.Second)
	cfg.FiscalLockTTL = parseDurationOr("FISCAL_LOCK_TTL", 2*time.Minute)

	return cfg, nil
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		return fallback
	}
	return d
}
