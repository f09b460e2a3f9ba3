package messaging

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridianhq/meridian/internal/authz"
	"github.com/meridianhq/meridian/internal/platform/httpx"
	"github.com/meridianhq/meridian/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
	authz   authz.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.ModuleMessages, authz.ActionView))
		r.Get("/threads", h.ListThreads)
		r.Get("/threads/{id}", h.ReadThread)
		r.Get("/messages/unread", h.UnreadTotal)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.ModuleMessages, authz.ActionSend))
		r.Post("/threads", h.StartThread)
		r.Post("/threads/{id}/messages", h.Post)
	})
}

func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	req := ListThreadsRequest{Limit: 50}
	q := r.URL.Query()
	if c := q.Get("client_id"); c != "" {
		if id, err := strconv.ParseInt(c, 10, 64); err == nil {
			req.ClientID = &id
		}
	}
	if l := q.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			req.Limit = parsed
		}
	}
	if o := q.Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			req.Offset = parsed
		}
	}

	threads, total, err := h.service.ListThreads(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("list threads", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	page := req.Offset/max(req.Limit, 1) + 1
	httpx.JSON(w, http.StatusOK, map[string]any{
		"threads":    threads,
		"pagination": shared.NewPagination(page, req.Limit, total),
	})
}

func (h *Handler) ReadThread(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	thread, msgs, err := h.service.Read(r.Context(), actor, id)
	if err != nil {
		h.respondErr(w, "read thread", err, id)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"thread":   thread,
		"messages": msgs,
	})
}

func (h *Handler) StartThread(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req CreateThreadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	thread, err := h.service.StartThread(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("start thread", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, thread)
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req PostMessageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	msg, err := h.service.Post(r.Context(), actor, id, req)
	if err != nil {
		h.respondErr(w, "post message", err, id)
		return
	}
	httpx.JSON(w, http.StatusCreated, msg)
}

func (h *Handler) UnreadTotal(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	count, err := h.service.UnreadTotal(r.Context(), actor)
	if err != nil {
		h.logger.Error("unread total", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error, id int64) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "thread not found")
		return
	}
	h.logger.Error(op, slog.Any("error", err), slog.Int64("thread_id", id))
	httpx.RespondError(w, err)
}

func requireActor(w http.ResponseWriter, r *http.Request) (authz.Context, bool) {
	actor, ok := authz.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return authz.Context{}, false
	}
	return actor, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid thread id")
		return 0, false
	}
	return id, true
}
