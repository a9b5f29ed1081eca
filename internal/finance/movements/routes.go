package movements

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Post("/{id}/confirmar", h.Confirm)
	r.Post("/{id}/conciliar", h.Reconcile)
	r.Post("/{id}/anular", h.Void)
}
