package http

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// generateRequestID creates a random identifier for request tracing.
func generateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b)
}

// sanitizeInput trims whitespace and strips control characters from form input.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' {
			return -1
		}
		return r
	}, s)
}

// pathID parses the {id} wildcard of a route pattern.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryInt parses an integer query parameter, falling back for absent or
// malformed values.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// redirectBack sends the browser to the referring page, or to fallback when
// the Referer header is absent or points off-site.
func redirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	ref := r.Header.Get("Referer")
	if sameSiteReferrer(ref, r.Host) {
		http.Redirect(w, r, ref, http.StatusFound)
		return
	}
	http.Redirect(w, r, fallback, http.StatusFound)
}

func sameSiteReferrer(ref, host string) bool {
	if strings.HasPrefix(ref, "/") {
		return true
	}
	return strings.HasPrefix(ref, "http://"+host+"/") || strings.HasPrefix(ref, "https://"+host+"/")
}
