package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "solidarlink/pkg/domain"
	"solidarlink/pkg/requestcontext"
)

// Claims represents the claims we expect from the JWT validator.
type Claims struct {
	UserID  string
	Role    string
	TokenID string
}

// TokenValidator validates bearer tokens and returns their claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// RevocationChecker reports whether a token has been revoked (logout).
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RequireAuth validates the bearer token and stores the actor identity in the
// request context. When allowQueryToken is set, a ?token= query parameter is
// accepted as a fallback: EventSource clients cannot set custom headers, so
// the stream endpoint needs it.
func RequireAuth(validator TokenValidator, revocations RevocationChecker, logger *slog.Logger, allowQueryToken bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := bearerToken(r)
			if token == "" && allowQueryToken {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			if revocations != nil && claims.TokenID != "" {
				revoked, err := revocations.IsRevoked(ctx, claims.TokenID)
				if err != nil {
					// Fail open on revocation-list outages; the token itself
					// is still signature- and expiry-checked.
					logger.ErrorContext(ctx, "revocation check failed",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
				} else if revoked {
					logger.WarnContext(ctx, "unauthorized access - revoked token",
						"request_id", requestcontext.RequestID(ctx),
					)
					writeUnauthorized(w, "Token has been revoked")
					return
				}
			}

			userID, err := id.ParseUserID(claims.UserID)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed subject",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}
			role, err := id.ParseRole(claims.Role)
			if err != nil {
				role = id.RoleCitizen
			}

			ctx = requestcontext.WithUserID(ctx, userID)
			ctx = requestcontext.WithRole(ctx, role)
			ctx = requestcontext.WithTokenID(ctx, claims.TokenID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose actor does not carry the admin role.
// Must be mounted after RequireAuth.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !requestcontext.Role(ctx).IsAdmin() {
				logger.WarnContext(ctx, "forbidden - admin role required",
					"user_id", requestcontext.UserID(ctx).String(),
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"admin role required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	const bearerPrefix = "Bearer "
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix); ok {
		return after
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
