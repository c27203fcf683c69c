package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/sheetsections/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx for history records.
// RemoteAddr has already been rewritten by TrustedRealIP.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, clientIP(r.RemoteAddr))
	return core.ContextWithUserAgent(ctx, r.UserAgent())
}

func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
