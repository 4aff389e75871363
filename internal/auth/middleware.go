package auth

import (
	"context"
	"net/http"

	"feedwatch/internal/core"
)

// Context key for user
type contextKey string

const userContextKey = contextKey("user")

// Middleware provides authentication middleware
type Middleware struct {
	admin  *Admin
	logger *core.Logger
}

// NewMiddleware creates new authentication middleware. A nil admin disables the check.
func NewMiddleware(admin *Admin, logger *core.Logger) *Middleware {
	return &Middleware{
		admin:  admin,
		logger: logger,
	}
}

// RequireAdmin rejects requests without valid admin credentials
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.admin == nil {
			next.ServeHTTP(w, r)
			return
		}

		// Add Vary header for caching
		w.Header().Add("Vary", "Authorization")

		user, password, ok := r.BasicAuth()
		if !ok {
			m.authenticationRequiredResponse(w)
			return
		}

		valid, err := m.admin.Authenticate(user, password)
		if err != nil {
			m.logger.Error("Password check error", "error", err)
			core.WriteErrorResponse(w, http.StatusInternalServerError, core.NewInternalError("Internal server error", nil))
			return
		}
		if !valid {
			m.logger.Warn("Rejected admin login", "user", user, "remote_addr", r.RemoteAddr)
			m.authenticationRequiredResponse(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
	})
}

// UserFromContext returns the authenticated admin user name, or "" when auth is off
func UserFromContext(ctx context.Context) string {
	user, _ := ctx.Value(userContextKey).(string)
	return user
}

func (m *Middleware) authenticationRequiredResponse(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="feedwatch", charset="UTF-8"`)
	core.WriteErrorResponse(w, http.StatusUnauthorized, core.NewUnauthorizedError("Authentication required", nil))
}
