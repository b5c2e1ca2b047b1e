package billing_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/modules/billing"
	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/pkg/entitlement"
	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/pkg/webhook"
)

const testSecret = "whsec_test"

func newWebhookHandler(t *testing.T) (*billing.Handler, *entitlement.MemoryStore) {
	t.Helper()
	d, store := newDispatcher(t)
	return billing.NewHandler(testSecret, d, slog.New(slog.DiscardHandler)), store
}

func post(t *testing.T, h *billing.Handler, body, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	if signature != "" {
		req.Header.Set(billing.SignatureHeader, signature)
	}
	rr := httptest.NewRecorder()
	h.ServeWebhook(rr, req)
	return rr
}

func TestHandler_ServeWebhook(t *testing.T) {
	t.Parallel()

	t.Run("rejects an empty body", func(t *testing.T) {
		t.Parallel()
		h, _ := newWebhookHandler(t)

		rr := post(t, h, "", webhook.Sign(testSecret, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects a missing signature", func(t *testing.T) {
		t.Parallel()
		h, _ := newWebhookHandler(t)

		rr := post(t, h, `{"meta":{"event_name":"order_created"}}`, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects a signature over different bytes", func(t *testing.T) {
		t.Parallel()
		h, _ := newWebhookHandler(t)

		body := `{"meta":{"event_name":"order_created"}}`
		rr := post(t, h, body, webhook.Sign(testSecret, []byte(body+" ")))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("rejects a signature under the wrong secret", func(t *testing.T) {
		t.Parallel()
		h, _ := newWebhookHandler(t)

		body := `{"meta":{"event_name":"order_created"}}`
		rr := post(t, h, body, webhook.Sign("other-secret", []byte(body)))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("rejects malformed JSON with a valid signature", func(t *testing.T) {
		t.Parallel()
		h, _ := newWebhookHandler(t)

		body := `{"meta":`
		rr := post(t, h, body, webhook.Sign(testSecret, []byte(body)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("applies a signed event end to end", func(t *testing.T) {
		t.Parallel()
		h, store := newWebhookHandler(t)

		trialEnd := time.Now().UTC().AddDate(0, 0, 7).Format(time.RFC3339)
		body := fmt.Sprintf(`{
			"meta": {"event_name": "subscription_created"},
			"data": {
				"id": "sub_1",
				"type": "subscriptions",
				"attributes": {
					"status": "on_trial",
					"trial_ends_at": %q,
					"user_email": %q
				}
			}
		}`, trialEnd, testUser)

		rr := post(t, h, body, webhook.Sign(testSecret, []byte(body)))
		require.Equal(t, http.StatusOK, rr.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["success"])

		rec, err := store.Get(context.Background(), testUser)
		require.NoError(t, err)
		assert.True(t, rec.IsPremium)
		assert.Equal(t, entitlement.StatusTrialing, rec.SubscriptionStatus)
	})

	t.Run("acknowledges signed events it does not recognize", func(t *testing.T) {
		t.Parallel()
		h, _ := newWebhookHandler(t)

		body := fmt.Sprintf(`{
			"meta": {"event_name": "affiliate_activated"},
			"data": {"id": "aff_1", "attributes": {"user_email": %q}}
		}`, testUser)

		rr := post(t, h, body, webhook.Sign(testSecret, []byte(body)))
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
