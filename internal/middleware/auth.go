package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"civsim-server/internal/auth"
	"civsim-server/internal/shared/errors"
	"civsim-server/internal/shared/response"
)

type contextKey string

const ClaimsContextKey contextKey = "claims"

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// JWTMiddleware authenticates requests with an "Authorization: Bearer"
// token signed with secret.
func JWTMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := slog.With(
				"middleware", "jwt",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			token, ok := bearerToken(r)
			if !ok {
				response.Error(w, r, logger, errors.Unauthorized("authentication required"))
				return
			}

			claims, err := auth.ValidateToken(secret, token)
			if err != nil {
				logger.Debug("Token rejected", "error", err)
				response.Error(w, r, logger, errors.Unauthorized("invalid token"))
				return
			}

			logger.Debug("JWT authentication successful", "subject", claims.Subject, "role", claims.Role)

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetClaimsFromContext(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(ClaimsContextKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// RoleMiddleware requires authenticated claims carrying role.
func RoleMiddleware(role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With(
			"middleware", "role",
			"required_role", role,
			"method", r.Method,
			"path", r.URL.Path,
		)

		claims := GetClaimsFromContext(r)
		if claims == nil {
			response.Error(w, r, logger, errors.Unauthorized("authentication required"))
			return
		}

		if claims.Role != role {
			response.Error(w, r, logger, errors.Forbidden(role+" access required"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireOperator guards endpoints that start simulation runs.
func RequireOperator(secret string, next http.Handler) http.Handler {
	return JWTMiddleware(secret)(RoleMiddleware(auth.RoleOperator, next))
}
