package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/skillsync/skillsync/internal/auth"
	"github.com/skillsync/skillsync/internal/store"
)

type contextKey string

const identityKey contextKey = "identity"

func withIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the caller set by JWTAuthMiddleware.
func IdentityFrom(ctx context.Context) (*auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*auth.Identity)
	return id, ok
}

func identity(r *http.Request) *auth.Identity {
	id, _ := IdentityFrom(r.Context())
	return id
}

// JWTAuthMiddleware verifies the bearer token and records the caller as a
// user, so later writes can reference them. Tokens whose role is not student,
// company or admin are rejected with 403.
func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authorization header is required"})
			return
		}
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authorization header must use the Bearer scheme"})
			return
		}

		id, err := auth.ValidateJWT(h.jwtSecret, strings.TrimSpace(tokenString))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return
		}

		if !store.ValidRole(id.Role) {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: fmt.Sprintf("unsupported role %q", id.Role)})
			return
		}

		if _, err := h.store.EnsureUser(r.Context(), id.UserID, id.Role, id.DisplayName); err != nil {
			h.log.Error("failed to record user", zap.String("user_id", id.UserID), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to process user identity"})
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

// RequireRole rejects callers whose token carries none of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := identity(r)
			if id == nil || !slices.Contains(roles, id.Role) {
				writeJSON(w, http.StatusForbidden, errorResponse{Error: "this action requires role " + strings.Join(roles, " or ")})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger emits one entry per request, at a level chosen by status.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			}

			switch {
			case status >= 500:
				log.Error("http request", fields...)
			case status >= 400:
				log.Warn("http request", fields...)
			default:
				log.Info("http request", fields...)
			}
		})
	}
}
