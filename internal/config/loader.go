package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Driver names accepted by SCHEDULER_STORAGE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// OperatorToken is one entry from SCHEDULER_OPERATOR_TOKENS: an operator name
// bound to an argon2id digest of their bearer token.
type OperatorToken struct {
	Operator string
	Digest   string
}

// Config captures environment driven configuration values for the booking
// service.
type Config struct {
	HTTPPort         int
	StorageDriver    string
	SQLiteDSN        string
	DatabaseURL      string
	OperatorTokens   []OperatorToken
	AdmissionRetries int
	ShutdownTimeout  time.Duration
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults; required and malformed values are
// collected and reported together so a misconfigured deployment fails with
// one complete message.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:         8080,
		StorageDriver:    DriverSQLite,
		SQLiteDSN:        "file:scheduler.db?_foreign_keys=on",
		AdmissionRetries: 3,
		ShutdownTimeout:  10 * time.Second,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("SCHEDULER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SCHEDULER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if driver := strings.TrimSpace(os.Getenv("SCHEDULER_STORAGE_DRIVER")); driver != "" {
		switch driver {
		case DriverSQLite, DriverPostgres:
			cfg.StorageDriver = driver
		default:
			invalid = append(invalid, "SCHEDULER_STORAGE_DRIVER")
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("SCHEDULER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("SCHEDULER_DATABASE_URL"))
	if cfg.StorageDriver == DriverPostgres && cfg.DatabaseURL == "" {
		missing = append(missing, "SCHEDULER_DATABASE_URL")
	}

	if tokensValue := strings.TrimSpace(os.Getenv("SCHEDULER_OPERATOR_TOKENS")); tokensValue == "" {
		missing = append(missing, "SCHEDULER_OPERATOR_TOKENS")
	} else {
		tokens, err := parseOperatorTokens(tokensValue)
		if err != nil {
			invalid = append(invalid, "SCHEDULER_OPERATOR_TOKENS")
		} else {
			cfg.OperatorTokens = tokens
		}
	}

	if retriesValue := strings.TrimSpace(os.Getenv("SCHEDULER_ADMISSION_RETRIES")); retriesValue != "" {
		retries, err := strconv.Atoi(retriesValue)
		if err != nil || retries < 0 {
			invalid = append(invalid, "SCHEDULER_ADMISSION_RETRIES")
		} else {
			cfg.AdmissionRetries = retries
		}
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("SCHEDULER_SHUTDOWN_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "SCHEDULER_SHUTDOWN_TIMEOUT")
		} else {
			cfg.ShutdownTimeout = timeout
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// parseOperatorTokens splits "operator:digest;operator:digest" entries. The
// digest side is an encoded argon2id string, which contains '$', ',' and '='
// but never ';' or ':'.
func parseOperatorTokens(value string) ([]OperatorToken, error) {
	entries := strings.Split(value, ";")
	tokens := make([]OperatorToken, 0, len(entries))
	seen := make(map[string]bool, len(entries))

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		operator, digest, ok := strings.Cut(entry, ":")
		operator = strings.TrimSpace(operator)
		digest = strings.TrimSpace(digest)
		if !ok || operator == "" || digest == "" {
			return nil, fmt.Errorf("malformed operator token entry: %q", entry)
		}
		if seen[operator] {
			return nil, fmt.Errorf("duplicate operator: %q", operator)
		}
		seen[operator] = true
		tokens = append(tokens, OperatorToken{Operator: operator, Digest: digest})
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("no operator tokens configured")
	}

	return tokens, nil
}
