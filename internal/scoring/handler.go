package scoring

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridianhq/meridian/internal/authz"
	"github.com/meridianhq/meridian/internal/platform/httpx"
)

// RecomputeEnqueuer hands a recompute request to the job queue.
type RecomputeEnqueuer interface {
	EnqueueScoreRecompute(ctx context.Context, tenantID, clientID int64) error
}

// Handler exposes score endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	enqueuer RecomputeEnqueuer
	authz    authz.Middleware
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service, enqueuer RecomputeEnqueuer, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, enqueuer: enqueuer, authz: mw}
}

// MountRoutes attaches score routes under /clients/{clientID}.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.ModuleScores, authz.ActionView))
		r.Get("/clients/{clientID}/score", h.latest)
		r.Get("/clients/{clientID}/score/history", h.history)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.ModuleScores, authz.ActionRecompute))
		r.Post("/clients/{clientID}/score/recompute", h.recompute)
	})
}

func (h *Handler) latest(w http.ResponseWriter, r *http.Request) {
	actor, clientID, ok := h.actorAndClient(w, r)
	if !ok {
		return
	}
	snap, err := h.service.Latest(r.Context(), actor.TenantID, clientID)
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "client has not been scored yet")
			return
		}
		h.logger.Error("load latest score", slog.Any("error", err), slog.Int64("client_id", clientID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	actor, clientID, ok := h.actorAndClient(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	history, err := h.service.History(r.Context(), actor.TenantID, clientID, limit)
	if err != nil {
		h.logger.Error("load score history", slog.Any("error", err), slog.Int64("client_id", clientID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"history": history})
}

func (h *Handler) recompute(w http.ResponseWriter, r *http.Request) {
	actor, clientID, ok := h.actorAndClient(w, r)
	if !ok {
		return
	}
	if err := h.enqueuer.EnqueueScoreRecompute(r.Context(), actor.TenantID, clientID); err != nil {
		h.logger.Error("enqueue recompute", slog.Any("error", err), slog.Int64("client_id", clientID))
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "could not schedule recompute")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"status": "scheduled", "client_id": clientID})
}

func (h *Handler) actorAndClient(w http.ResponseWriter, r *http.Request) (authz.Context, int64, bool) {
	actor, ok := authz.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return authz.Context{}, 0, false
	}
	clientID, err := strconv.ParseInt(chi.URLParam(r, "clientID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid client id")
		return authz.Context{}, 0, false
	}
	return actor, clientID, true
}
