package http

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		key         string
		want        string
		wantJSON    bool
		wantErr     bool
	}{
		{"json string", "application/json", `{"allocation":"150.25"}`, "allocation", "150.25", true, false},
		{"json number", "application/json", `{"allocation":150.25}`, "allocation", "150.25", true, false},
		{"json large number keeps digits", "application/json", `{"allocation":12345678901234567.89}`, "allocation", "12345678901234567.89", true, false},
		{"json without content type", "", `{"method":"snowball"}`, "method", "snowball", true, false},
		{"json missing key", "application/json", `{"method":"snowball"}`, "allocation", "", true, false},
		{"form", "application/x-www-form-urlencoded", "allocation=75", "allocation", "75", false, false},
		{"empty body", "", "", "allocation", "", false, false},
		{"invalid json", "application/json", `{"allocation":`, "allocation", "", false, true},
		{"trailing data", "application/json", `{"allocation":"1"} extra`, "allocation", "", false, true},
		{"too large", "application/json", `{"method":"` + strings.Repeat("a", maxBodyBytes) + `"}`, "method", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("PUT", "/api/preferences/allocation", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			p := NewRequestBodyParser(req)
			err := p.Parse()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if p.IsJSON() != tt.wantJSON {
				t.Errorf("IsJSON() = %v, want %v", p.IsJSON(), tt.wantJSON)
			}
			if got := p.Get(tt.key); got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}
