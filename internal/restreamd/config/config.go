// Package config loads restreamd's runtime configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every tunable listed in the configuration surface: listener
// addresses, TLS, and the admission limits AdmissionPolicy enforces.
type Config struct {
	StaticAddr   string
	RestreamAddr string
	AdminAddr    string
	UseTLS       bool
	TLSCertFile  string
	TLSKeyFile   string

	MaxPathsCount     int
	MaxClientsPerPath int

	LogLevel  string
	LogFormat string
}

// Load reads a .env file (if present) into the process environment, then
// builds a Config from environment variables, falling back to sane
// defaults for anything unset. A missing .env file is not an error: system
// environment variables and the defaults below still apply.
func Load(envPaths ...string) (Config, error) {
	if len(envPaths) == 0 {
		envPaths = []string{".env"}
	}
	_ = godotenv.Load(envPaths...)

	return Config{
		StaticAddr:   getEnv("RESTREAMD_STATIC_ADDR", ":8555"),
		RestreamAddr: getEnv("RESTREAMD_RESTREAM_ADDR", ":8554"),
		AdminAddr:    getEnv("RESTREAMD_ADMIN_ADDR", ":9090"),
		UseTLS:       getEnvBool("RESTREAMD_USE_TLS", false),
		TLSCertFile:  getEnv("RESTREAMD_TLS_CERT_FILE", ""),
		TLSKeyFile:   getEnv("RESTREAMD_TLS_KEY_FILE", ""),

		MaxPathsCount:     getEnvInt("RESTREAMD_MAX_PATHS_COUNT", 0),
		MaxClientsPerPath: getEnvInt("RESTREAMD_MAX_CLIENTS_PER_PATH", 0),

		LogLevel:  getEnv("RESTREAMD_LOG_LEVEL", "info"),
		LogFormat: getEnv("RESTREAMD_LOG_FORMAT", "json"),
	}, nil
}

func getEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if s := os.Getenv(key); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return fallback
}
