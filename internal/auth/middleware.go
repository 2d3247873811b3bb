package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"officecrm/internal/authz"
	"officecrm/internal/logging"
)

// Verifier checks an access token and returns its claims.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

type contextKey struct{}

var claimsKey = contextKey{}

// WithClaims stores verified claims in the context.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func ClaimsFrom(ctx context.Context) *Claims {
	if c, ok := ctx.Value(claimsKey).(*Claims); ok {
		return c
	}
	return nil
}

// PrincipalFrom returns the caller of the request, or nil when the request
// is unauthenticated.
func PrincipalFrom(ctx context.Context) *authz.Principal {
	if c := ClaimsFrom(ctx); c != nil {
		return c.Principal()
	}
	return nil
}

// Middleware requires a valid, unrevoked bearer token on every path except
// publicPaths. Entries ending in "/*" match by prefix.
func Middleware(v Verifier, revoker Revoker, publicPaths []string) func(http.Handler) http.Handler {
	public := make(map[string]bool, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path, public) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}
			claims, err := v.Verify(token)
			if err != nil {
				logging.Op().Debug("token rejected", "error", err)
				unauthorized(w, "invalid or expired token")
				return
			}
			revoked, err := revoker.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				logging.Op().Warn("revocation check failed", "error", err)
				unauthorized(w, "token could not be checked")
				return
			}
			if revoked {
				unauthorized(w, "token has been revoked")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

func isPublicPath(path string, public map[string]bool) bool {
	if public[path] {
		return true
	}
	for p := range public {
		if strings.HasSuffix(p, "/*") && strings.HasPrefix(path, strings.TrimSuffix(p, "*")) {
			return true
		}
	}
	return false
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="officecrm"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"error":     "unauthorized",
		"message":   msg,
		"retryable": false,
	})
}
