package filings

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
		r.Use(h.authz.Require(authz.ModuleFilings, authz.ActionView))
		r.Get("/filings", h.List)
		r.Get("/filings/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.ModuleFilings, authz.ActionCreate))
		r.Post("/filings", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.ModuleFilings, authz.ActionEdit))
		r.Patch("/filings/{id}", h.Update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.ModuleFilings, authz.ActionSubmit))
		r.Post("/filings/{id}/submit", h.Submit)
		r.Post("/filings/{id}/accept", h.Accept)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	req := ListFilingsRequest{Limit: 50}
	q := r.URL.Query()
	if c := q.Get("client_id"); c != "" {
		if id, err := strconv.ParseInt(c, 10, 64); err == nil {
			req.ClientID = &id
		}
	}
	if s := q.Get("status"); s != "" {
		req.Status = &s
	}
	req.Overdue = q.Get("overdue") == "true"
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
		h.logger.Error("list filings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	page := req.Offset/max(req.Limit, 1) + 1
	httpx.JSON(w, http.StatusOK, map[string]any{
		"filings":    list,
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
	filing, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		h.respondErr(w, "get filing", err, id)
		return
	}
	httpx.JSON(w, http.StatusOK, filing)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req CreateFilingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	filing, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
			return
		}
		h.logger.Error("create filing", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, filing)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateFilingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	filing, err := h.service.Update(r.Context(), actor, id, req)
	if err != nil {
		h.respondErr(w, "update filing", err, id)
		return
	}
	httpx.JSON(w, http.StatusOK, filing)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req := SubmitFilingRequest{}
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
			return
		}
	}
	filing, err := h.service.Submit(r.Context(), actor, id, req)
	if err != nil {
		h.respondErr(w, "submit filing", err, id)
		return
	}
	httpx.JSON(w, http.StatusOK, filing)
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	filing, err := h.service.Accept(r.Context(), actor, id)
	if err != nil {
		h.respondErr(w, "accept filing", err, id)
		return
	}
	httpx.JSON(w, http.StatusOK, filing)
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error, id int64) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "filing not found")
		return
	}
	h.logger.Error(op, slog.Any("error", err), slog.Int64("filing_id", id))
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
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid filing id")
		return 0, false
	}
	return id, true
}
