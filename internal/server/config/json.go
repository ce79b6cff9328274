package config

import (
	"encoding/json"
	"os"

	"github.com/anshc022/imf-gadget-api/internal/flagx"
	"github.com/anshc022/imf-gadget-api/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Interval
// fields use timex.Duration so both "15m" and integer nanoseconds parse.
// Absent or zero fields leave the current value untouched.
type JsonConfig struct {
	HTTPAddr              string         `json:"http_addr"`
	GRPCHealthAddr        string         `json:"grpc_health_addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	BcryptCost            int            `json:"bcrypt_cost"`
	StorageTimeout        timex.Duration `json:"storage_timeout"`
	Environment           string         `json:"environment"`
	LogLevel              string         `json:"log_level"`
	LogBackend            string         `json:"log_backend"`
	RateLimitRequests     int            `json:"rate_limit_requests"`
	RateLimitWindow       timex.Duration `json:"rate_limit_window"`
	CORSOrigins           []string       `json:"cors_origins"`
	DBConnectAttempts     int            `json:"db_connect_attempts"`
	DBConnectRetryDelay   timex.Duration `json:"db_connect_retry_delay"`
	DBMaxOpenConns        int            `json:"max_open_conns"`
	DBMaxIdleConns        int            `json:"max_idle_conns"`
	DBConnMaxIdleTime     timex.Duration `json:"conn_max_idle_time"`
	AdminUsername         string         `json:"admin_username"`
	AdminPassword         string         `json:"admin_password"`
}

// parseJson loads configuration values from the JSON file named by the
// -c or -config flag. Without the flag nothing is loaded.
// An unreadable or malformed file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCHealthAddr, c.GRPCHealthAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Environment, c.Environment)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.AdminUsername, c.AdminUsername)
	setString(&config.AdminPassword, c.AdminPassword)

	setInt(&config.BcryptCost, c.BcryptCost)
	setInt(&config.RateLimitRequests, c.RateLimitRequests)
	setInt(&config.DBConnectAttempts, c.DBConnectAttempts)
	setInt(&config.DBMaxOpenConns, c.DBMaxOpenConns)
	setInt(&config.DBMaxIdleConns, c.DBMaxIdleConns)

	if c.TokenValidityDuration.IsSet() {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.StorageTimeout.IsSet() {
		config.StorageTimeout = c.StorageTimeout.Duration
	}
	if c.RateLimitWindow.IsSet() {
		config.RateLimitWindow = c.RateLimitWindow.Duration
	}
	if c.DBConnectRetryDelay.IsSet() {
		config.DBConnectRetryDelay = c.DBConnectRetryDelay.Duration
	}
	if c.DBConnMaxIdleTime.IsSet() {
		config.DBConnMaxIdleTime = c.DBConnMaxIdleTime.Duration
	}
	if len(c.CORSOrigins) > 0 {
		config.CORSOrigins = c.CORSOrigins
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
