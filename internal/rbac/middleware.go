package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/fieldline-crm/fieldline-crm/internal/platform/httpx"
	"github.com/fieldline-crm/fieldline-crm/internal/shared"
)

type roleContextKey struct{}

// ContextWithRole stores the resolved role in context.
func ContextWithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleContextKey{}, role)
}

// RoleFromContext extracts the role resolved by a guard, or "".
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleContextKey{}).(string)
	return role
}

// Middleware wires RBAC authorization guards for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Protect grants access iff every supplied constraint holds: when permission
// is non-empty the resolved role must carry it, and when requiredRole is
// non-empty the resolved role must rank at or above it. An empty constraint
// is automatically satisfied. Constraints are conjunctive.
func (m Middleware) Protect(permission, requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := CurrentUserID(r)
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			role, err := m.Service.GetUserRole(r.Context(), userID)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("rbac resolve role", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if permission != "" && !HasPermission(role, permission) {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing permission "+permission)
				return
			}
			if requiredRole != "" && !HasRole(role, requiredRole) {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "requires role "+requiredRole+" or higher")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithRole(r.Context(), role)))
		})
	}
}

// RequirePermission guards a route with a single permission constraint.
func (m Middleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return m.Protect(permission, "")
}

// RequireRole guards a route with a minimum-role constraint.
func (m Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return m.Protect("", role)
}

// CurrentUserID extracts the authenticated user id from the session.
func CurrentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
