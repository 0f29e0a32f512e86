package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP. An empty URL disables messaging; transactions then wait for
	// the worker's pending sweep.
	AMQPURL        string
	AMQPExchange   string
	AMQPQueue      string
	AMQPAlertQueue string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Gmail ingestion
	GmailOAuthClientFile string
	GmailOAuthClientJSON string
	GmailQuery           string
	OAuthRedirectPort    string
	TokenEncryptionKey   string

	// Worker
	EmailPollInterval time.Duration
	EmailBatchSize    int
	SyncBatchSize     int
	SyncInterval      time.Duration

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/momentum.db"),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "momentum"),
		AMQPQueue:      getEnv("AMQP_QUEUE", "sync_transactions"),
		AMQPAlertQueue: getEnv("AMQP_ALERT_QUEUE", "budget_alerts"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		GmailOAuthClientFile: getEnv("GMAIL_OAUTH_CLIENT_FILE", ""),
		GmailOAuthClientJSON: getEnv("GMAIL_OAUTH_CLIENT_JSON", ""),
		GmailQuery:           getEnv("GMAIL_QUERY", ""),
		OAuthRedirectPort:    getEnv("OAUTH_REDIRECT_PORT", "8085"),
		TokenEncryptionKey:   getEnv("TOKEN_ENCRYPTION_KEY", ""),

		EmailPollInterval: getEnvDuration("EMAIL_POLL_INTERVAL", 5*time.Minute),
		EmailBatchSize:    getEnvInt("EMAIL_BATCH_SIZE", 50),
		SyncBatchSize:     getEnvInt("SYNC_BATCH_SIZE", 10),
		SyncInterval:      getEnvDuration("SYNC_INTERVAL", 30*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// GmailEnabled reports whether mailbox ingestion is configured.
func (c *Config) GmailEnabled() bool {
	return c.GmailOAuthClientFile != "" || c.GmailOAuthClientJSON != ""
}

// SheetsEnabled reports whether spreadsheet export is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// GmailClientJSON returns the OAuth client secret, inline JSON first.
func (c *Config) GmailClientJSON() ([]byte, error) {
	if c.GmailOAuthClientJSON != "" {
		return []byte(c.GmailOAuthClientJSON), nil
	}
	if c.GmailOAuthClientFile == "" {
		return nil, errors.New("set GMAIL_OAUTH_CLIENT_JSON or GMAIL_OAUTH_CLIENT_FILE")
	}
	b, err := os.ReadFile(c.GmailOAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("read gmail client file: %w", err)
	}
	return b, nil
}

// SlogLevel maps LogLevel onto slog levels, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate validates the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		problems = append(problems, "SQLite database path cannot be empty")
	} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				problems = append(problems, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GmailEnabled() {
		if c.TokenEncryptionKey == "" {
			problems = append(problems, "TOKEN_ENCRYPTION_KEY is required when Gmail ingestion is configured")
		}
		if c.GmailOAuthClientFile != "" && c.GmailOAuthClientJSON == "" {
			if _, err := os.Stat(c.GmailOAuthClientFile); os.IsNotExist(err) {
				problems = append(problems, fmt.Sprintf("Gmail OAuth client file does not exist: %s", c.GmailOAuthClientFile))
			}
		}
	}
	if c.TokenEncryptionKey != "" {
		if b, err := hex.DecodeString(c.TokenEncryptionKey); err != nil || len(b) != 32 {
			problems = append(problems, "TOKEN_ENCRYPTION_KEY must be 64 hex characters")
		}
	}

	if c.EmailBatchSize < 1 || c.EmailBatchSize > 500 {
		problems = append(problems, fmt.Sprintf("invalid email batch size %d: must be between 1 and 500", c.EmailBatchSize))
	}
	if c.EmailPollInterval < 30*time.Second {
		problems = append(problems, fmt.Sprintf("invalid email poll interval %v: must be at least 30 seconds", c.EmailPollInterval))
	}

	if c.SyncBatchSize < 1 {
		problems = append(problems, fmt.Sprintf("invalid sync batch size %d: must be at least 1", c.SyncBatchSize))
	} else if c.SyncBatchSize > 1000 {
		problems = append(problems, fmt.Sprintf("invalid sync batch size %d: must be at most 1000", c.SyncBatchSize))
	}

	if c.SyncInterval < time.Second {
		problems = append(problems, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		problems = append(problems, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
