package middleware

import (
	"net"
	"net/http"
	"strings"

	shield "github.com/yatrik/shield"
)

// ClientIP extracts the originating address: first X-Forwarded-For hop when
// present, else the connection's remote host.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			fwd = fwd[:idx]
		}
		if ip := strings.TrimSpace(fwd); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RequestInfo builds the Engine's request snapshot from an HTTP request.
func RequestInfo(r *http.Request) shield.RequestInfo {
	return shield.RequestInfo{
		IP:        ClientIP(r),
		UserAgent: r.UserAgent(),
		Method:    r.Method,
		Endpoint:  r.URL.RequestURI(),
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
