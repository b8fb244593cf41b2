package config

import (
	"os"
	"strconv"
	"time"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

type Config struct {
	HTTPAddr      string
	Backend       string
	AccountsFile  string
	SessionsFile  string
	DatabaseDSN   string
	CookieSecret  string
	SecretFile    string
	SessionTTL    time.Duration
	SweepInterval time.Duration
	SecureCookie  bool
}

func Load() Config {
	return Config{
		HTTPAddr:      getEnv("LEDGER_HTTP_ADDR", ":8000"),
		Backend:       getEnv("LEDGER_BACKEND", BackendJSON),
		AccountsFile:  getEnv("LEDGER_ACCOUNTS_FILE", "data.json"),
		SessionsFile:  getEnv("LEDGER_SESSIONS_FILE", "sessions.json"),
		DatabaseDSN:   getEnv("LEDGER_DB_DSN", "file:ledger.db?cache=shared&mode=rwc"),
		CookieSecret:  getEnv("LEDGER_COOKIE_SECRET", ""),
		SecretFile:    getEnv("LEDGER_SECRET_FILE", ".ledger_cookie_key"),
		SessionTTL:    getDuration("LEDGER_SESSION_TTL", 24*time.Hour),
		SweepInterval: getDuration("LEDGER_SWEEP_INTERVAL", 10*time.Minute),
		SecureCookie:  getBool("LEDGER_SECURE_COOKIE", false),
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// getDuration falls back to def on a missing or unparseable value.
func getDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}

func getBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
