package documents

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
		r.Use(h.authz.Require(authz.ModuleDocuments, authz.ActionView))
		r.Get("/documents", h.List)
		r.Get("/documents/{id}", h.Show)
		r.Get("/document-categories", h.ListCategories)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.ModuleDocuments, authz.ActionUpload))
		r.Post("/documents", h.Create)
		r.Post("/documents/{id}/versions", h.AddVersion)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.ModuleDocuments, authz.ActionManage))
		r.Post("/document-categories", h.CreateCategory)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	req := ListDocumentsRequest{Limit: 50}
	if c := r.URL.Query().Get("client_id"); c != "" {
		if id, err := strconv.ParseInt(c, 10, 64); err == nil {
			req.ClientID = &id
		}
	}
	if c := r.URL.Query().Get("category_id"); c != "" {
		if id, err := strconv.ParseInt(c, 10, 64); err == nil {
			req.CategoryID = &id
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			req.Limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			req.Offset = parsed
		}
	}

	docs, total, err := h.service.List(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("list documents", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	page := req.Offset/max(req.Limit, 1) + 1
	httpx.JSON(w, http.StatusOK, map[string]any{
		"documents":  docs,
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
	doc, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		h.respondErr(w, "get document", err, id)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req CreateDocumentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	doc, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
			return
		}
		h.logger.Error("create document", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *Handler) AddVersion(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UploadVersion
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	doc, err := h.service.AddVersion(r.Context(), actor, id, req)
	if err != nil {
		h.respondErr(w, "add version", err, id)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	cats, err := h.service.Categories(r.Context(), actor)
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": cats})
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req CreateCategoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	cat, err := h.service.CreateCategory(r.Context(), actor, req)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
			return
		}
		h.logger.Error("create category", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, cat)
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error, id int64) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "document not found")
		return
	}
	h.logger.Error(op, slog.Any("error", err), slog.Int64("document_id", id))
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
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid document id")
		return 0, false
	}
	return id, true
}
