package billing

import (
	"github.com/go-chi/chi/v5"
)

// Router mounts the billing webhook ingress.
func Router(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/webhook", h.ServeWebhook)
	return r
}
