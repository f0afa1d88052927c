package config

import (
	"errors"
	"os"
)

// Sentinel errors let handlers report the precise missing configuration
// before any upstream call is attempted.
var (
	ErrMissingClientID = errors.New("SHOPIFY_CLIENT_ID is not configured")
	ErrMissingShopID   = errors.New("SHOPIFY_SHOP_ID is not configured")
	ErrMissingLoopKey  = errors.New("LOOP_API_KEY is not configured")
)

// Config is built once at startup and passed by injection; request paths
// never read the environment.
type Config struct {
	// Customer Account API
	ShopID     string
	ClientID   string
	APIVersion string

	// Loop Subscriptions admin API
	LoopAPIKey  string
	LoopAPIBase string

	// Server
	AppURL string
	Port   string

	// Optional infrastructure
	MongoURI      string
	MongoDatabase string
	RedisURL      string
}

// Load reads configuration from the environment with development defaults
// for everything non-secret.
func Load() *Config {
	return &Config{
		ShopID:        os.Getenv("SHOPIFY_SHOP_ID"),
		ClientID:      os.Getenv("SHOPIFY_CLIENT_ID"),
		APIVersion:    getenv("SHOPIFY_API_VERSION", "2024-10"),
		LoopAPIKey:    os.Getenv("LOOP_API_KEY"),
		LoopAPIBase:   getenv("LOOP_API_BASE", "https://api.loopsubscriptions.com/admin/v1"),
		AppURL:        getenv("APP_URL", "http://localhost:8080"),
		Port:          getenv("PORT", "8080"),
		MongoURI:      os.Getenv("MONGODB_URI"),
		MongoDatabase: getenv("MONGODB_DATABASE", "conka"),
		RedisURL:      os.Getenv("REDIS_URL"),
	}
}

// ValidateAuth checks the values the authorization flow needs.
func (c *Config) ValidateAuth() error {
	if c.ClientID == "" {
		return ErrMissingClientID
	}
	if c.ShopID == "" {
		return ErrMissingShopID
	}
	return nil
}

// ValidateMirror checks the values the Loop adapter needs.
func (c *Config) ValidateMirror() error {
	if c.LoopAPIKey == "" {
		return ErrMissingLoopKey
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
