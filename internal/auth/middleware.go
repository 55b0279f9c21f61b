package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// userKey carries the authenticated user id on a request context.
type userKey struct{}

// AuthMiddleware admits requests with a valid bearer token for a kinfolk
// user and records the user id on the request context. Tree ownership is
// checked later against that id.
func (s *Service) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, msg := bearerToken(r.Header.Get("Authorization"))
		if msg != "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": msg})
			return
		}

		userID, err := s.ValidateToken(token)
		if err != nil {
			slog.Debug("token rejected", "path", r.URL.Path, "error", err)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// bearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively. A non-empty message means the header
// is unusable.
func bearerToken(header string) (token, msg string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid authorization format"
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", "invalid authorization format"
	}
	return token, ""
}

// WithUserID attaches an authenticated user to ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserIDFromContext returns the user set by AuthMiddleware, or "" outside it.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userKey{}).(string)
	return userID
}
