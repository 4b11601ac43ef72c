package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLogHTTPEnd(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantLevel   string
		wantSuccess bool
	}{
		{"ok", http.StatusOK, "INFO", true},
		{"client error", http.StatusNotFound, "WARN", false},
		{"server error", http.StatusInternalServerError, "ERROR", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Config{Component: ComponentHTTP, Handler: slog.NewJSONHandler(&buf, nil)})
			r := httptest.NewRequest(http.MethodGet, "/api/comparison", nil)
			r.Header.Set("User-Agent", "payoffctl")

			LogHTTPEnd(context.Background(), logger.With(FieldClientIP, "203.0.113.9"), r, "req-1", tt.status, 12)

			var rec map[string]any
			if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
				t.Fatalf("decode %q: %v", buf.String(), err)
			}
			want := map[string]any{
				"level":         tt.wantLevel,
				FieldRequestID:  "req-1",
				FieldClientIP:   "203.0.113.9",
				FieldMethod:     http.MethodGet,
				FieldPath:       "/api/comparison",
				FieldUserAgent:  "payoffctl",
				FieldStatusCode: float64(tt.status),
				FieldDuration:   float64(12),
				FieldSuccess:    tt.wantSuccess,
				FieldComponent:  ComponentHTTP,
			}
			for k, v := range want {
				if rec[k] != v {
					t.Errorf("%s = %v, want %v", k, rec[k], v)
				}
			}
		})
	}
}
