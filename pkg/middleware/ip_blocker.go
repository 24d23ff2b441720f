package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
)

// IPBlockList manages blocked IPs safely
type IPBlockList struct {
	mu      sync.RWMutex
	blocked map[string]bool
}

// NewIPBlockList blocks every non-empty entry of ips.
func NewIPBlockList(ips ...string) *IPBlockList {
	b := &IPBlockList{blocked: make(map[string]bool)}
	for _, ip := range ips {
		if ip = strings.TrimSpace(ip); ip != "" {
			b.blocked[ip] = true
		}
	}
	return b
}

// IsBlocked checks if an IP is in the blocklist
func (b *IPBlockList) IsBlocked(ip string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.blocked[ip]
}

// Len reports the number of blocked IPs.
func (b *IPBlockList) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blocked)
}

// Middleware rejects requests from blocked addresses with 403. Only
// RemoteAddr is consulted; forwarding headers are not trusted.
func (b *IPBlockList) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if b.IsBlocked(ip) {
			slog.Warn("🚫 Request Blocked (Blacklisted IP)", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"ok":false,"error":{"message":"access denied"}}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}
