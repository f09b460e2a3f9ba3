package clients

import (
	"github.com/go-chi/chi/v5"

	"github.com/meridianhq/meridian/internal/authz"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.ModuleClients, authz.ActionView))
		r.Get("/clients", h.List)
		r.Get("/clients/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.ModuleClients, authz.ActionCreate))
		r.Post("/clients", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.ModuleClients, authz.ActionEdit))
		r.Patch("/clients/{id}", h.Update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.ModuleClients, authz.ActionArchive))
		r.Post("/clients/{id}/archive", h.Archive)
	})
}
