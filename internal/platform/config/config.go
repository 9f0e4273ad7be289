package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration so main stays lean.
type Server struct {
	Addr            string
	DatabaseURL     string
	RedisURL        string
	JWTSecret       string
	ReceiptSalt     string
	ShutdownTimeout time.Duration

	BackupMaxCount int
	BackupMaxAge   time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("ELECTION_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8080"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// Development default; must be overridden in production.
		secret = "dev-secret-change-me"
	}

	salt := os.Getenv("RECEIPT_SALT")
	if salt == "" {
		salt = "dev-receipt-salt-change-me"
	}

	return Server{
		Addr:            addr,
		DatabaseURL:     DatabaseURL(),
		RedisURL:        os.Getenv("REDIS_URL"),
		JWTSecret:       secret,
		ReceiptSalt:     salt,
		ShutdownTimeout: 30 * time.Second,
		BackupMaxCount:  envInt("BACKUP_MAX_COUNT", 10),
		BackupMaxAge:    time.Duration(envInt("BACKUP_MAX_AGE_DAYS", 30)) * 24 * time.Hour,
	}
}

// DatabaseURL assembles the postgres connection string from either
// DATABASE_URL or the individual POSTGRES_* variables.
func DatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return "postgres://" + os.Getenv("POSTGRES_USER") + ":" + os.Getenv("POSTGRES_PASSWORD") +
		"@" + os.Getenv("POSTGRES_HOST") + ":" + os.Getenv("POSTGRES_PORT") +
		"/" + os.Getenv("POSTGRES_DB") + "?sslmode=disable"
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
