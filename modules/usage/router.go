package usage

import (
	"github.com/go-chi/chi/v5"
)

// Router mounts the usage-check API.
func Router(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{category}", h.GetStatus)
	r.Post("/{category}/consume", h.Consume)
	return r
}
