package util

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the caller IP from request metadata. The X-Forwarded-For
// chain is consulted only when trustForwarded is set, taking the first
// parseable entry; otherwise the direct peer address wins.
func ClientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip.String()
			}
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
