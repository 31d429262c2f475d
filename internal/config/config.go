package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	defaultEnv       = "development"
	defaultDBPath    = "./dev.db"
	defaultPort      = "8080"
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env            string
	AdminEmail     string
	AdminPassword  string
	JWTSecret      string
	DBPath         string
	Port           string
	LogLevel       string
	LogFormat      string
	ReportTimezone string
	SeedDemo       bool
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Production injects real environment variables; .env is for local runs.
	if err := loadDotEnv(".env"); err != nil {
		log.Printf("warning: read .env: %v", err)
	}

	cfg := Config{
		Env:            getenv("APP_ENV", defaultEnv),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		DBPath:         getenv("DB_PATH", defaultDBPath),
		Port:           getenv("PORT", defaultPort),
		LogLevel:       getenv("LOG_LEVEL", defaultLogLevel),
		LogFormat:      getenv("LOG_FORMAT", defaultLogFormat),
		ReportTimezone: getenv("REPORT_TIMEZONE", "Local"),
	}
	cfg.SeedDemo = getbool("SEED_DEMO", cfg.IsDev())

	if cfg.AdminEmail == "" {
		log.Print("warning: ADMIN_EMAIL is not set")
	}
	if cfg.AdminPassword == "" {
		log.Print("warning: ADMIN_PASSWORD is not set")
	}
	if cfg.JWTSecret == "" {
		log.Print("warning: JWT_SECRET is not set")
	}

	return cfg
}

// IsDev reports whether the app runs in development mode.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local":
		return true
	}
	return false
}

// Location resolves ReportTimezone. Unknown names fall back to time.Local.
func (c Config) Location() *time.Location {
	if c.ReportTimezone == "" || c.ReportTimezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		log.Printf("warning: REPORT_TIMEZONE %q: %v", c.ReportTimezone, err)
		return time.Local
	}
	return loc
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getbool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("warning: %s=%q is not a boolean", key, v)
		return def
	}
	return b
}
