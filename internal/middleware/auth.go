package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/voltride/rental-server-go/internal/service"
)

type contextKey string

const UserIDContextKey contextKey = "userID"

// GetUserID returns the authenticated user id from the request context, or
// uuid.Nil when the request did not pass the auth middleware.
func GetUserID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(UserIDContextKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// AuthMiddleware gates routes that need a resolved identity before the
// handler runs (the SSE feed). The engines resolve credentials themselves;
// this middleware exists for endpoints that have no engine behind them.
type AuthMiddleware struct {
	tokens *service.TokenService
}

func NewAuthMiddleware(tokens *service.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := ExtractCredential(r)
		if credential == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing authentication token",
			})
			return
		}

		userID, err := m.tokens.Resolve(credential)
		if err != nil {
			log.Warn().Err(err).Msg("auth middleware: credential rejected")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid token",
			})
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ExtractCredential pulls the opaque bearer credential off a request.
// Handlers pass it through to the engines untouched.
func ExtractCredential(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	return ""
}
