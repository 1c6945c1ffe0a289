package invoices

import (
	"github.com/go-chi/chi/v5"

	"github.com/fieldline-crm/fieldline-crm/internal/shared"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(shared.PermInvoicesView))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
		r.Get("/{id}/pdf", h.PDF)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(shared.PermInvoicesEdit))
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Post("/{id}/pay", h.MarkPaid)
		r.Delete("/{id}", h.Delete)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(shared.PermInvoicesSend))
		r.Post("/{id}/send", h.Send)
	})
}
