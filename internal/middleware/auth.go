package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/auth"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

// SessionValidator turns a bearer token into a session
type SessionValidator interface {
	Validate(token string) (auth.Session, error)
}

// RequireSession rejects requests without a valid "Authorization: Bearer <token>" header and
// stores the caller's session in the request context.
func RequireSession(validator SessionValidator, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token", "request_id", chimw.GetReqID(ctx))
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid Authorization header", logger)
				return
			}

			session, err := validator.Validate(strings.TrimSpace(token))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", chimw.GetReqID(ctx),
				)
				message := "Invalid token"
				if errors.Is(err, auth.ErrTokenExpired) {
					message = "Token has expired"
				}
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", message, logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSession(ctx, session)))
		})
	}
}

// RequireRole lets through only sessions holding one of roles. It must run after RequireSession.
func RequireRole(logger *slog.Logger, roles ...models.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := auth.SessionFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", logger)
				return
			}
			for _, role := range roles {
				if session.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			logger.WarnContext(r.Context(), "forbidden - role not allowed",
				"user_id", session.UserID,
				"role", session.Role,
				"path", r.URL.Path,
			)
			writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient role", logger)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, code, message string, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code}); err != nil {
		logger.Error("failed to write auth error response", "error", err)
	}
}
