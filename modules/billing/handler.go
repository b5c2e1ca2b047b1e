package billing

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/pkg/webhook"
)

// SignatureHeader carries the provider's hex HMAC-SHA256 of the raw body.
const SignatureHeader = "X-Signature"

// maxBodyBytes bounds webhook payload size; provider payloads are small.
const maxBodyBytes = 1 << 20

// Handler is the webhook ingress. It captures the raw body before any JSON
// parsing so the signature is computed over the exact bytes the provider
// signed.
type Handler struct {
	secret     string
	dispatcher *Dispatcher
	log        *slog.Logger
}

func NewHandler(secret string, dispatcher *Dispatcher, log *slog.Logger) *Handler {
	return &Handler{secret: secret, dispatcher: dispatcher, log: log}
}

// ServeWebhook handles POSTed provider events.
//
//	200 {success:true} — handled or deliberately ignored
//	400               — missing signature or unparseable body
//	401               — signature mismatch
//	500               — transient processing error; provider redelivers
func (h *Handler) ServeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(body) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "missing request body"})
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "missing signature"})
		return
	}

	if !webhook.Verify(h.secret, body, signature) {
		h.log.WarnContext(r.Context(), "webhook signature mismatch")
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid signature"})
		return
	}

	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		h.log.WarnContext(r.Context(), "webhook payload is not valid JSON", slog.Any("error", err))
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed payload"})
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), &ev); err != nil {
		h.log.ErrorContext(r.Context(), "webhook processing failed",
			slog.String("event", ev.Meta.EventName),
			slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "processing failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
