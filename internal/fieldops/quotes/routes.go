package quotes

import (
	"github.com/go-chi/chi/v5"

	"github.com/fieldline-crm/fieldline-crm/internal/shared"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(shared.PermQuotesView))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
		r.Get("/{id}/pdf", h.PDF)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(shared.PermQuotesEdit))
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Post("/{id}/accept", h.Accept)
		r.Post("/{id}/decline", h.Decline)
		r.Delete("/{id}", h.Delete)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(shared.PermQuotesSend))
		r.Post("/{id}/send", h.Send)
	})
}
