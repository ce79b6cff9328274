package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anshc022/imf-gadget-api/internal/flagx"
	"github.com/joho/godotenv"
)

// defaultEnvFile is read when present and no -env-file flag is given.
const defaultEnvFile = ".env"

// parseEnv overlays values from environment variables. A dotenv file is
// loaded first (it never overrides variables already set in the process).
//
// Recognised variables:
//
//	PORT, GRPC_HEALTH_ADDR, DATABASE_URL, JWT_SECRET, JWT_EXPIRES_IN,
//	BCRYPT_COST, STORAGE_TIMEOUT, APP_ENV, LOG_LEVEL, LOG_BACKEND,
//	RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, CORS_ORIGINS,
//	ADMIN_USERNAME, ADMIN_PASSWORD
//
// A malformed numeric or duration value panics, like a malformed JSON file.
func parseEnv(config *Config) {
	loadEnvFile(flagx.EnvFileFlag())

	if v, ok := os.LookupEnv("PORT"); ok && v != "" {
		config.HTTPAddr = ":" + strings.TrimPrefix(v, ":")
	}
	lookupString("GRPC_HEALTH_ADDR", &config.GRPCHealthAddr)
	lookupString("DATABASE_URL", &config.DatabaseDSN)
	lookupString("JWT_SECRET", &config.SecretKey)
	lookupDuration("JWT_EXPIRES_IN", &config.TokenValidityDuration)
	lookupInt("BCRYPT_COST", &config.BcryptCost)
	lookupDuration("STORAGE_TIMEOUT", &config.StorageTimeout)
	lookupString("APP_ENV", &config.Environment)
	lookupString("LOG_LEVEL", &config.LogLevel)
	lookupString("LOG_BACKEND", &config.LogBackend)
	lookupInt("RATE_LIMIT_REQUESTS", &config.RateLimitRequests)
	lookupDuration("RATE_LIMIT_WINDOW", &config.RateLimitWindow)
	lookupString("ADMIN_USERNAME", &config.AdminUsername)
	lookupString("ADMIN_PASSWORD", &config.AdminPassword)

	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok && v != "" {
		config.CORSOrigins = splitList(v)
	}
}

func loadEnvFile(path string) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
		return
	}

	if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}
}

func lookupString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func lookupInt(key string, dst *int) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func lookupDuration(key string, dst *time.Duration) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
