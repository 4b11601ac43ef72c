package http

import (
	"net/http"
	"strings"
	"unicode/utf8"
)

const (
	userHeader   = "X-User-ID"
	maxUserIDLen = 64
	maxDebtIDLen = 128
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// userID resolves the acting user from the X-User-ID header, falling back
// to the configured default. The second result is false for ids that are
// too long or not valid UTF-8.
func (s *Server) userID(r *http.Request) (string, bool) {
	id := sanitizeInput(r.Header.Get(userHeader))
	if id == "" {
		return s.defaultUser, true
	}
	if len(id) > maxUserIDLen || !utf8.ValidString(id) {
		return "", false
	}
	return id, true
}

// queryFlag reads a boolean-ish query parameter.
func queryFlag(r *http.Request, name string) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(name))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
