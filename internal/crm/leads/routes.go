package leads

import (
	"github.com/go-chi/chi/v5"

	"github.com/fieldline-crm/fieldline-crm/internal/shared"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(shared.PermLeadsView))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(shared.PermLeadsEdit))
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Post("/{id}/convert", h.Convert)
		r.Delete("/{id}", h.Delete)
	})
}
