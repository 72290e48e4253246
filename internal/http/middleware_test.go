package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/facility-scheduler/internal/application"
)

type staticResolver struct {
	token     string
	principal application.Principal
}

func (r staticResolver) Resolve(token string) (application.Principal, error) {
	if token == r.token {
		return r.principal, nil
	}
	return application.Principal{}, application.ErrUnauthorized
}

func TestRequireOperator(t *testing.T) {
	resolver := staticResolver{token: "good-token", principal: application.Principal{Operator: "ops"}}

	var seen application.Principal
	handler := RequireOperator(resolver, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid token", "Bearer good-token", http.StatusOK},
		{"wrong token", "Bearer bad-token", http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "good-token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/events", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusOK && seen.Operator != "ops" {
				t.Errorf("expected principal 'ops' in context, got %q", seen.Operator)
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if LoggerFromContext(r.Context()) == nil {
			t.Error("expected a request scoped logger in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	logged := buf.String()
	if !bytes.Contains([]byte(logged), []byte("request started")) {
		t.Errorf("expected 'request started' entry, got %s", logged)
	}
	if !bytes.Contains([]byte(logged), []byte("request completed")) {
		t.Errorf("expected 'request completed' entry, got %s", logged)
	}
	if !bytes.Contains([]byte(logged), []byte(`"path":"/events"`)) {
		t.Errorf("expected path attribute, got %s", logged)
	}
}
