package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Store backends.
const (
	StoreSQLite    = "sqlite"
	StorePathstore = "pathstore"
	StoreMemory    = "memory"
)

type Config struct {
	Port string

	// Auth
	CasegenAPIKey string

	// Jira
	JiraBaseURL  string
	JiraEmail    string
	JiraAPIToken string

	// Test-case generation service
	GeneratorURL     string
	GeneratorTimeout time.Duration
	StatsWindow      time.Duration

	// Message store
	StoreBackend    string
	StoreDir        string
	PathstoreURL    string
	PathstoreAPIKey string

	// Chat input
	MaxInputChars int

	// Attachments
	IncludeAttachments   bool
	MaxAttachmentBytes   int64
	MaxContextTokens     int
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		CasegenAPIKey: os.Getenv("CASEGEN_API_KEY"),

		JiraBaseURL:  os.Getenv("JIRA_BASE_URL"),
		JiraEmail:    os.Getenv("JIRA_EMAIL"),
		JiraAPIToken: os.Getenv("JIRA_API_TOKEN"),

		GeneratorURL:     envOr("GENERATOR_URL", "https://llm-api-inv4.onrender.com"),
		GeneratorTimeout: envDuration("GENERATOR_TIMEOUT", 120*time.Second),
		StatsWindow:      envDuration("STATS_WINDOW", time.Hour),

		StoreBackend:    envOr("STORE_BACKEND", StoreSQLite),
		StoreDir:        envOr("STORE_DIR", "./data"),
		PathstoreURL:    envOr("PATHSTORE_URL", "http://localhost:8080"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),

		MaxInputChars: envInt("MAX_INPUT_CHARS", 400),

		IncludeAttachments:   envBool("INCLUDE_ATTACHMENTS", true),
		MaxAttachmentBytes:   envInt64("MAX_ATTACHMENT_BYTES", 10<<20), // 10MB
		MaxContextTokens:     envInt("MAX_CONTEXT_TOKENS", 6000),
		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.GeneratorTimeout <= 0 {
		cfg.GeneratorTimeout = 120 * time.Second
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = time.Hour
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = 400
	}
	if cfg.MaxAttachmentBytes <= 0 {
		cfg.MaxAttachmentBytes = 10 << 20
	}
	if cfg.MaxContextTokens <= 0 {
		cfg.MaxContextTokens = 6000
	}

	return cfg
}

func (c Config) Validate() error {
	if c.CasegenAPIKey == "" {
		return fmt.Errorf("CASEGEN_API_KEY is required")
	}
	if c.JiraBaseURL == "" {
		return fmt.Errorf("JIRA_BASE_URL is required")
	}
	if c.JiraAPIToken == "" {
		return fmt.Errorf("JIRA_API_TOKEN is required")
	}
	if c.GeneratorURL == "" {
		return fmt.Errorf("GENERATOR_URL is required")
	}
	switch c.StoreBackend {
	case StoreSQLite, StoreMemory:
	case StorePathstore:
		if c.PathstoreAPIKey == "" {
			return fmt.Errorf("PATHSTORE_API_KEY is required for the pathstore backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
