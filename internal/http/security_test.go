package http

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{
			name:       "direct connection",
			remoteAddr: "203.0.113.7:4567",
			want:       "203.0.113.7",
		},
		{
			name:       "trusted proxy honors forwarded-for",
			remoteAddr: "127.0.0.1:8080",
			xff:        "198.51.100.9, 10.0.0.1",
			want:       "198.51.100.9",
		},
		{
			name:       "untrusted peer ignores forwarded-for",
			remoteAddr: "203.0.113.7:4567",
			xff:        "198.51.100.9",
			want:       "203.0.113.7",
		},
		{
			name:       "trusted proxy honors real-ip",
			remoteAddr: "192.168.1.1:1234",
			xri:        "198.51.100.9",
			want:       "198.51.100.9",
		},
		{
			name:       "invalid forwarded value falls back",
			remoteAddr: "127.0.0.1:8080",
			xff:        "not-an-ip",
			want:       "127.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := extractClientIP(req); got != tt.want {
				t.Errorf("extractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   bool
	}{
		{"normal page", "/expenses?page=2", false},
		{"path traversal", "/static/../../etc/passwd", true},
		{"wordpress probe", "/wp-admin/setup.php", true},
		{"script tag in query", "/expenses?search=<script>alert(1)</script>", true},
		{"dotfile probe", "/.env", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m securityMetrics
			req := httptest.NewRequest("GET", tt.target, nil)
			if got := detectSuspiciousRequest(req, &m); got != tt.want {
				t.Errorf("detectSuspiciousRequest(%q) = %v, want %v", tt.target, got, tt.want)
			}
			if tt.want && m.suspiciousRequests != 1 {
				t.Errorf("suspiciousRequests = %d, want 1", m.suspiciousRequests)
			}
		})
	}
}

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	var m securityMetrics
	for i := 0; i < 60; i++ {
		if !rl.allow("203.0.113.7", &m) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("203.0.113.7", &m) {
		t.Error("request 61 within a minute should be rejected")
	}
	if m.rateLimitHits != 1 {
		t.Errorf("rateLimitHits = %d, want 1", m.rateLimitHits)
	}

	// A different client is tracked independently
	if !rl.allow("198.51.100.9", &m) {
		t.Error("other client should not be affected")
	}
}

func TestRateLimiterWindowResetsDespiteSteadyTraffic(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	var m securityMetrics
	for i := 0; i < 60; i++ {
		if !rl.allow("203.0.113.7", &m) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("203.0.113.7", &m) {
		t.Fatal("request past the limit should be rejected")
	}

	// The window is anchored at its first request; once it expires the
	// client gets a fresh allowance even if requests never stopped coming.
	rl.mu.Lock()
	rl.clients["203.0.113.7"].windowStart = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()

	if !rl.allow("203.0.113.7", &m) {
		t.Error("request after the window expired should be allowed")
	}
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := newRateLimiter()
	rl.stop()
	rl.stop()
}
