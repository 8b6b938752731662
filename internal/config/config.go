package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"takings/internal/core"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string
	RecordPolicy core.RecordPolicy

	// AMQP (optional; empty URL disables the queue and the server mirrors
	// saved records directly, best effort)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Spreadsheet mirror
	Sheets SheetsConfig

	// Worker
	SyncBatchSize int
	SyncInterval  time.Duration
}

// SheetsConfig is the explicit configuration handed to the sheets client;
// nothing reads the environment at call time.
type SheetsConfig struct {
	Enabled       bool
	SpreadsheetID string
	SheetName     string
	// Credential material: a file path or inline JSON. Exactly one is needed
	// when the mirror is enabled.
	ServiceAccountFile string
	ServiceAccountJSON string
}

// ResolveCredentials returns the service account JSON from whichever source
// is configured.
func (s SheetsConfig) ResolveCredentials() ([]byte, error) {
	switch {
	case s.ServiceAccountJSON != "":
		return []byte(s.ServiceAccountJSON), nil
	case s.ServiceAccountFile != "":
		data, err := os.ReadFile(s.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
}

func Load() *Config {
	// An unknown policy value is kept as-is so Validate can report it.
	policyStr := getEnv("RECORD_POLICY", "")
	policy, err := core.ParseRecordPolicy(policyStr)
	if err != nil {
		policy = core.RecordPolicy(policyStr)
	}

	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/takings.db"),
		RecordPolicy: policy,

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "takings"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_records"),

		Sheets: SheetsConfig{
			Enabled:            getEnvBool("SHEETS_ENABLED", false),
			SpreadsheetID:      getEnv("SHEET_ID", ""),
			SheetName:          getEnv("SHEET_NAME", "Sheet1"),
			ServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
			ServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		},

		SyncBatchSize: getEnvInt("SYNC_BATCH_SIZE", 10),
		SyncInterval:  getEnvDuration("SYNC_INTERVAL", 30*time.Second),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := core.ParseRecordPolicy(string(c.RecordPolicy)); err != nil {
		errors = append(errors, fmt.Sprintf("invalid record policy '%s': must be '%s' or '%s'",
			c.RecordPolicy, core.PolicyDaily, core.PolicyVisit))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.Sheets.Enabled {
		if c.Sheets.SpreadsheetID == "" {
			errors = append(errors, "SHEET_ID is required when the sheets mirror is enabled")
		}
		if c.Sheets.SheetName == "" {
			errors = append(errors, "SHEET_NAME cannot be empty when the sheets mirror is enabled")
		}
		if c.Sheets.ServiceAccountFile == "" && c.Sheets.ServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided when the sheets mirror is enabled")
		}
		if c.Sheets.ServiceAccountFile != "" {
			if _, err := os.Stat(c.Sheets.ServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("service account file does not exist: %s", c.Sheets.ServiceAccountFile))
			}
		}
	}

	if c.SyncBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at least 1", c.SyncBatchSize))
	} else if c.SyncBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at most 1000", c.SyncBatchSize))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
