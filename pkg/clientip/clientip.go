package clientip

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the client IP from r.RemoteAddr only. Use it when
// traffic reaches the app directly and proxy headers cannot be trusted.
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}

// ForwardedClientIP prefers the first X-Forwarded-For hop, then X-Real-IP,
// then RemoteAddr. Only safe behind a proxy that overwrites these headers.
func ForwardedClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
		return ip
	}
	return RealClientIP(r)
}

// Resolver picks ForwardedClientIP or RealClientIP.
func Resolver(trustProxyHeaders bool) func(*http.Request) string {
	if trustProxyHeaders {
		return ForwardedClientIP
	}
	return RealClientIP
}
