package common

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// BearerToken extracts "Bearer <token>" from the Authorization header, or the
// token query parameter for browser WebSocket clients that cannot set headers.
func BearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.Fields(header)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// ResolveIdentity returns the user a request acts for. With token signing
// enabled the identity comes from a valid token only; otherwise it is the
// userId the client claims, which may be empty.
func ResolveIdentity(r *http.Request, tokens *TokenManager) (string, error) {
	if tokens.Enabled() {
		raw := BearerToken(r)
		if raw == "" {
			return "", ErrUnauthenticated
		}
		claims, err := tokens.ValidToken(raw)
		if err != nil {
			return "", ErrUnauthenticated
		}
		return claims.UserID, nil
	}
	return strings.TrimSpace(r.URL.Query().Get("userId")), nil
}

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs method, path and latency of every request.
func RequestLogger(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debugw("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
		})
	}
}
