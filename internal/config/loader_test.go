package config

import (
	"strings"
	"testing"
	"time"
)

const testDigest = "$argon2id$v=19$m=65536,t=3,p=2$c29tZXNhbHQ$aGFzaGhhc2hoYXNoaGFzaA"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SCHEDULER_OPERATOR_TOKENS", "ops:"+testDigest)
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.StorageDriver != DriverSQLite {
		t.Errorf("Expected default driver sqlite, got %s", cfg.StorageDriver)
	}
	if cfg.SQLiteDSN == "" {
		t.Error("Expected a default SQLite DSN")
	}
	if cfg.AdmissionRetries != 3 {
		t.Errorf("Expected default admission retries 3, got %d", cfg.AdmissionRetries)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("Expected default shutdown timeout 10s, got %v", cfg.ShutdownTimeout)
	}
	if len(cfg.OperatorTokens) != 1 || cfg.OperatorTokens[0].Operator != "ops" {
		t.Errorf("Expected one operator 'ops', got %v", cfg.OperatorTokens)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SCHEDULER_HTTP_PORT", "9090")
	t.Setenv("SCHEDULER_STORAGE_DRIVER", "postgres")
	t.Setenv("SCHEDULER_DATABASE_URL", "postgres://scheduler@localhost/scheduler")
	t.Setenv("SCHEDULER_ADMISSION_RETRIES", "5")
	t.Setenv("SCHEDULER_SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.HTTPPort)
	}
	if cfg.StorageDriver != DriverPostgres {
		t.Errorf("Expected driver postgres, got %s", cfg.StorageDriver)
	}
	if cfg.DatabaseURL != "postgres://scheduler@localhost/scheduler" {
		t.Errorf("Unexpected database url: %s", cfg.DatabaseURL)
	}
	if cfg.AdmissionRetries != 5 {
		t.Errorf("Expected admission retries 5, got %d", cfg.AdmissionRetries)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
}

func TestLoadMissingOperatorTokens(t *testing.T) {
	t.Setenv("SCHEDULER_OPERATOR_TOKENS", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Expected error for missing operator tokens")
	}
	if !strings.Contains(err.Error(), "SCHEDULER_OPERATOR_TOKENS") {
		t.Errorf("Expected error to name SCHEDULER_OPERATOR_TOKENS, got %v", err)
	}
}

func TestLoadPostgresRequiresURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SCHEDULER_STORAGE_DRIVER", "postgres")
	t.Setenv("SCHEDULER_DATABASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Expected error for postgres driver without database url")
	}
	if !strings.Contains(err.Error(), "SCHEDULER_DATABASE_URL") {
		t.Errorf("Expected error to name SCHEDULER_DATABASE_URL, got %v", err)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non numeric port", "SCHEDULER_HTTP_PORT", "eighty"},
		{"negative port", "SCHEDULER_HTTP_PORT", "-1"},
		{"unknown driver", "SCHEDULER_STORAGE_DRIVER", "oracle"},
		{"non numeric retries", "SCHEDULER_ADMISSION_RETRIES", "many"},
		{"negative retries", "SCHEDULER_ADMISSION_RETRIES", "-1"},
		{"bad timeout", "SCHEDULER_SHUTDOWN_TIMEOUT", "soon"},
		{"negative timeout", "SCHEDULER_SHUTDOWN_TIMEOUT", "-5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Expected error for %s=%s", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("Expected error to name %s, got %v", tt.key, err)
			}
		})
	}
}

func TestParseOperatorTokens(t *testing.T) {
	tokens, err := parseOperatorTokens("alice:" + testDigest + ";bob:" + testDigest)
	if err != nil {
		t.Fatalf("parseOperatorTokens failed: %v", err)
	}
	if len(tokens) != 2 || tokens[0].Operator != "alice" || tokens[1].Operator != "bob" {
		t.Errorf("Unexpected tokens: %v", tokens)
	}

	if _, err := parseOperatorTokens("alice"); err == nil {
		t.Error("Expected error for entry without digest")
	}
	if _, err := parseOperatorTokens("alice:" + testDigest + ";alice:" + testDigest); err == nil {
		t.Error("Expected error for duplicate operator")
	}
	if _, err := parseOperatorTokens(";;"); err == nil {
		t.Error("Expected error for empty token list")
	}
}
