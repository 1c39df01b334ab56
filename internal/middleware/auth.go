package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/digital-menu/api/internal/auth"
	"github.com/digital-menu/api/internal/enum"
	"github.com/digital-menu/api/internal/logger"
	"github.com/digital-menu/api/internal/metrics"
)

type contextKey string

const claimsKey contextKey = "claims"

// Reasons an admin request is turned away, used as the metric label.
const (
	rejectMissingHeader = "missing_header"
	rejectBadScheme     = "bad_scheme"
	rejectInvalidToken  = "invalid_token"
	rejectForbidden     = "forbidden"
)

var (
	errNoAuthHeader = errors.New("missing authorization header")
	errBadScheme    = errors.New("invalid authorization format")
)

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errNoAuthHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", errBadScheme
	}
	return strings.TrimSpace(token), nil
}

// Authenticate admits requests carrying a valid admin token. The claims go
// into the request context and the request logger is tagged with the
// token's subject, so admin actions can be traced in the logs.
func Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				reason := rejectBadScheme
				if errors.Is(err, errNoAuthHeader) {
					reason = rejectMissingHeader
				}
				reject(w, r, http.StatusUnauthorized, reason, err.Error())
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, token)
			if err != nil {
				logger.WithCtx(r.Context()).Debug("token rejected", "error", err)
				reject(w, r, http.StatusUnauthorized, rejectInvalidToken, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = logger.Inject(ctx, logger.WithCtx(ctx).With("admin", claims.Subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets through callers whose token carries one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
				return
			}

			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			reject(w, r, http.StatusForbidden, rejectForbidden, "insufficient permissions")
		})
	}
}

// RequireAdmin is RequireRole for the admin panel role.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(enum.RoleAdmin)
}

func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

func reject(w http.ResponseWriter, r *http.Request, status int, reason, msg string) {
	metrics.AdminAuthRejected.WithLabelValues(reason).Inc()
	logger.WithCtx(r.Context()).Warn("admin request rejected",
		"reason", reason,
		"path", r.URL.Path,
		"remote", r.RemoteAddr,
	)
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
