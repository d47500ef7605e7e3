package audit

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// Client identifies the caller behind an audited request.
type Client struct {
	IP        string
	UserAgent string
}

type clientKey struct{}

// ClientFromRequest reads the caller's address and user agent.
func ClientFromRequest(r *http.Request) Client {
	if r == nil {
		return Client{}
	}
	return Client{IP: ClientIP(r), UserAgent: r.UserAgent()}
}

// WithClient stores the caller on ctx for entries logged further down the call.
func WithClient(ctx context.Context, client Client) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// ClientFromContext returns the caller stored by WithClient.
func ClientFromContext(ctx context.Context) (Client, bool) {
	if ctx == nil {
		return Client{}, false
	}
	client, ok := ctx.Value(clientKey{}).(Client)
	return client, ok
}

// Middleware attaches the request's Client to its context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithClient(r.Context(), ClientFromRequest(r))))
	})
}

// ClientIP returns the first usable address from X-Forwarded-For, then
// X-Real-IP, then the connection's remote host.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	for _, hop := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := parseHost(hop); ip != "" {
			return ip
		}
	}
	if ip := parseHost(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// parseHost accepts a bare IP or host:port and drops anything else, such
// as the "unknown" some proxies send.
func parseHost(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(value); err == nil {
		value = host
	}
	if net.ParseIP(value) == nil {
		return ""
	}
	return value
}
