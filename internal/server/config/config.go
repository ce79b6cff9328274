// Package config handles configuration for the gadget API server,
// including defaults, JSON overlay, environment variables and command-line flags.
package config

import "time"

// Config holds runtime settings for the gadget API server.
//
// Fields:
//   - HTTPAddr: bind address for the REST API.
//   - GRPCHealthAddr: bind address for the grpc.health.v1 probe. Empty disables it.
//   - DatabaseDSN: PostgreSQL DSN (pgx).
//   - SecretKey: HMAC secret for signing JWTs (HS256). Must be set in production.
//   - TokenValidityDuration: lifetime of issued tokens.
//   - BcryptCost: work factor for password digests.
//   - StorageTimeout: upper bound for a single service call against the database.
//   - Environment: "development" exposes error details in 500 responses.
type Config struct {
	HTTPAddr              string
	GRPCHealthAddr        string
	DatabaseDSN           string
	SecretKey             string
	TokenValidityDuration time.Duration
	BcryptCost            int
	StorageTimeout        time.Duration

	Environment string
	LogLevel    string
	LogBackend  string

	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSOrigins       []string

	DBConnectAttempts   int
	DBConnectRetryDelay time.Duration
	DBMaxOpenConns      int
	DBMaxIdleConns      int
	DBConnMaxIdleTime   time.Duration

	AdminUsername string
	AdminPassword string
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey and DatabaseDSN are empty and have to be provided.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":5000"
	c.GRPCHealthAddr = ":50051"
	c.TokenValidityDuration = 24 * time.Hour
	c.BcryptCost = 10
	c.StorageTimeout = 5 * time.Second
	c.Environment = "production"
	c.LogLevel = "info"
	c.LogBackend = "zap"
	c.RateLimitRequests = 100
	c.RateLimitWindow = 15 * time.Minute
	c.CORSOrigins = []string{"*"}
	c.DBConnectAttempts = 5
	c.DBConnectRetryDelay = 5 * time.Second
	c.DBMaxOpenConns = 5
	c.DBMaxIdleConns = 5
	c.DBConnMaxIdleTime = 10 * time.Second
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment (and optional .env file) and
// finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
