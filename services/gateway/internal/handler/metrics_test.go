package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsIPAllowlist(t *testing.T) {
	private := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "127.0.0.0/8"}

	tests := []struct {
		name   string
		cidrs  []string
		remote string
		want   int
	}{
		{"loopback", private, "127.0.0.1:12345", http.StatusOK},
		{"10.x", private, "10.20.30.40:12345", http.StatusOK},
		{"172.16.x", private, "172.16.5.10:12345", http.StatusOK},
		{"192.168.x", private, "192.168.1.100:12345", http.StatusOK},
		{"public blocked", private, "8.8.8.8:12345", http.StatusForbidden},
		{"no port", []string{"10.0.0.0/8"}, "10.0.0.1", http.StatusOK},
		{"ipv6 loopback", []string{"::1/128"}, "[::1]:12345", http.StatusOK},
		{"ipv4-mapped ipv6", []string{"10.0.0.0/8"}, "[::ffff:10.1.2.3]:80", http.StatusOK},
		{"invalid cidr skipped", []string{"invalid-cidr", "10.0.0.0/8"}, "10.0.0.1:1", http.StatusOK},
		{"empty list blocks all", nil, "127.0.0.1:12345", http.StatusForbidden},
		{"garbage remote addr", private, "not-an-ip", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := metricsIPAllowlist(tt.cidrs, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			req.RemoteAddr = tt.remote
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestMetricsIPAllowlist_ForbiddenBody(t *testing.T) {
	h := metricsIPAllowlist([]string{"10.0.0.0/8"}, testLogger())(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.RemoteAddr = "203.0.113.50:12345"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":{"code":"FORBIDDEN","message":"metrics endpoint is restricted"}}`, rr.Body.String())
}
