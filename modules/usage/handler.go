package usage

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// UserHeader identifies the authenticated user. The surrounding service
// fills it in after authentication; this core trusts it.
const UserHeader = "X-User-Email"

// Handler exposes the quota tracker over HTTP.
type Handler struct {
	tracker *Tracker
	log     *slog.Logger
}

func NewHandler(tracker *Tracker, log *slog.Logger) *Handler {
	return &Handler{tracker: tracker, log: log}
}

// GetStatus answers GET /{category}: the current quota state without
// consuming anything.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	user, cat, ok := h.identify(w, r)
	if !ok {
		return
	}

	st, err := h.tracker.Check(r.Context(), user, cat)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Consume answers POST /{category}/consume: checks the quota and counts the
// action when allowed.
func (h *Handler) Consume(w http.ResponseWriter, r *http.Request) {
	user, cat, ok := h.identify(w, r)
	if !ok {
		return
	}

	st, err := h.tracker.Consume(r.Context(), user, cat)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) identify(w http.ResponseWriter, r *http.Request) (string, Category, bool) {
	user := r.Header.Get(UserHeader)
	if user == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "missing user identity"})
		return "", "", false
	}

	cat, ok := ParseCategory(chi.URLParam(r, "category"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unknown usage category"})
		return "", "", false
	}
	return user, cat, true
}

// fail responds to a store failure by denying the action. Failing open here
// would turn infrastructure trouble into a quota bypass.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.log.ErrorContext(r.Context(), "usage check failed", slog.Any("error", err))
	writeJSON(w, http.StatusInternalServerError, &Status{CanUse: false, Reason: "store_unavailable"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
