package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom log forwarding configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// ServerConfig defines HTTP boundary behavior.
type ServerConfig struct {
	Port            string
	AllowedOrigins  []string
	MaxUploadMB     int
	MaxConcurrent   int
	ShutdownTimeout time.Duration
}

// ConvertConfig defines limits and tuning for the conversion core.
type ConvertConfig struct {
	MaxFiles       int
	MaxFileMB      int
	JPEGQuality    int
	DefaultDPI     float64
	Workers        int
	ValidateOutput bool
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Server  ServerConfig
	Convert ConvertConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/byentech.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_byentech",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Server = ServerConfig{
		Port:            getEnv("PORT", "5000"),
		AllowedOrigins:  parseList(getEnv("ALLOWED_ORIGINS", "")),
		MaxUploadMB:     parseInt(getEnv("MAX_UPLOAD_MB", "128"), 128),
		MaxConcurrent:   parseInt(getEnv("MAX_CONCURRENT_CONVERSIONS", "4"), 4),
		ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
	}

	cfg.Convert = ConvertConfig{
		MaxFiles:       parseInt(getEnv("MAX_FILES_PER_REQUEST", "50"), 50),
		MaxFileMB:      parseInt(getEnv("MAX_FILE_MB", "32"), 32),
		JPEGQuality:    parseInt(getEnv("JPEG_QUALITY", "95"), 95),
		DefaultDPI:     parseFloat(getEnv("DEFAULT_DPI", "96"), 96),
		Workers:        parseInt(getEnv("CONVERT_WORKERS", "4"), 4),
		ValidateOutput: parseBool(getEnv("VALIDATE_OUTPUT", "true")),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func parseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
