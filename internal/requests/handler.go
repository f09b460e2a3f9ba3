package requests

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
		r.Use(h.authz.Require(authz.ModuleRequests, authz.ActionView))
		r.Get("/requests", h.List)
		r.Get("/requests/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.ModuleRequests, authz.ActionCreate))
		r.Post("/requests", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.ModuleRequests, authz.ActionAssign))
		r.Post("/requests/{id}/assign", h.Assign)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.ModuleRequests, authz.ActionEdit))
		r.Post("/requests/{id}/status", h.UpdateStatus)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	req := ListRequestsRequest{Limit: 50}
	q := r.URL.Query()
	if c := q.Get("client_id"); c != "" {
		if id, err := strconv.ParseInt(c, 10, 64); err == nil {
			req.ClientID = &id
		}
	}
	if s := q.Get("status"); s != "" {
		req.Status = &s
	}
	if a := q.Get("assignee_id"); a != "" {
		if id, err := strconv.ParseInt(a, 10, 64); err == nil {
			req.AssigneeID = &id
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

	list, total, err := h.service.List(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("list requests", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	page := req.Offset/max(req.Limit, 1) + 1
	httpx.JSON(w, http.StatusOK, map[string]any{
		"requests":   list,
		"pagination": shared.NewPagination(page, req.Limit, total),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	request, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		h.respondErr(w, "get request", err, id)
		return
	}
	httpx.JSON(w, http.StatusOK, request)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req CreateRequestRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	request, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("create request", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, request)
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req AssignRequestRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	request, err := h.service.Assign(r.Context(), actor, id, req)
	if err != nil {
		h.respondErr(w, "assign request", err, id)
		return
	}
	httpx.JSON(w, http.StatusOK, request)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	request, err := h.service.UpdateStatus(r.Context(), actor, id, req)
	if err != nil {
		h.respondErr(w, "update request status", err, id)
		return
	}
	httpx.JSON(w, http.StatusOK, request)
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error, id int64) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "request not found")
		return
	}
	h.logger.Error(op, slog.Any("error", err), slog.Int64("request_id", id))
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
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request id")
		return 0, false
	}
	return id, true
}
