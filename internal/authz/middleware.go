package authz

import (
	"log/slog"
	"net/http"

	"github.com/meridianhq/meridian/internal/platform/httpx"
)

// Middleware wires authorization checks into HTTP handlers.
type Middleware struct {
	Engine *Engine
	Logger *slog.Logger
}

// Require rejects requests whose actor lacks the (module, action)
// permission with a 403 problem response.
func (m Middleware) Require(module, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := FromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			if err := m.Engine.RequirePermission(actor, module, action); err != nil {
				if m.Logger != nil {
					m.Logger.Warn("permission denied",
						slog.String("role", string(actor.Role)),
						slog.String("module", module),
						slog.String("action", action),
						slog.Int64("user_id", actor.UserID),
					)
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
