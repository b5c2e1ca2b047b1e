package billing_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/modules/billing"
	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/pkg/entitlement"
)

func newDispatcher(t *testing.T) (*billing.Dispatcher, *entitlement.MemoryStore) {
	t.Helper()
	store := entitlement.NewMemoryStore()
	log := slog.New(slog.DiscardHandler)
	machine := billing.NewStateMachine(store, log)
	refunds := billing.NewRefundEnforcer(store, log)
	dedup := billing.NewMemoryDeduplicator(128, time.Hour)
	return billing.NewDispatcher(store, machine, refunds, dedup, log), store
}

func TestDispatcher_Dispatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("acknowledges payloads without a user identity", func(t *testing.T) {
		t.Parallel()
		d, store := newDispatcher(t)

		ev := &billing.Event{
			Meta: billing.EventMeta{EventName: billing.EventSubscriptionCreated},
			Data: billing.EventData{ID: "sub_1", Type: "subscriptions"},
		}
		require.NoError(t, d.Dispatch(ctx, ev))

		_, err := store.Get(ctx, testUser)
		assert.ErrorIs(t, err, entitlement.ErrNotFound)
	})

	t.Run("acknowledges unrecognized event names", func(t *testing.T) {
		t.Parallel()
		d, store := newDispatcher(t)

		require.NoError(t, d.Dispatch(ctx, event("license_key_created", "lk_1", billing.EventAttributes{})))

		rec, err := store.Get(ctx, testUser)
		require.NoError(t, err)
		assert.Equal(t, entitlement.StatusNone, rec.SubscriptionStatus)
		assert.False(t, rec.IsPremium)
	})

	t.Run("duplicate deliveries are applied once", func(t *testing.T) {
		t.Parallel()
		d, store := newDispatcher(t)

		trialEnd := time.Now().UTC().AddDate(0, 0, 7)
		ev := event(billing.EventSubscriptionCreated, "sub_1", billing.EventAttributes{TrialEndsAt: &trialEnd})

		require.NoError(t, d.Dispatch(ctx, ev))
		require.NoError(t, d.Dispatch(ctx, ev))

		rec, err := store.Get(ctx, testUser)
		require.NoError(t, err)
		assert.Equal(t, 1, rec.TrialCount)
		assert.Equal(t, entitlement.StatusTrialing, rec.SubscriptionStatus)
	})

	t.Run("created without a trial window activates directly", func(t *testing.T) {
		t.Parallel()
		d, store := newDispatcher(t)

		renews := time.Now().UTC().AddDate(0, 1, 0)
		require.NoError(t, d.Dispatch(ctx, event(billing.EventSubscriptionCreated, "sub_1", billing.EventAttributes{
			RenewsAt: &renews,
		})))

		rec, err := store.Get(ctx, testUser)
		require.NoError(t, err)
		assert.Equal(t, entitlement.StatusActive, rec.SubscriptionStatus)
		assert.Equal(t, entitlement.PaymentSubscription, rec.PaymentType)
		assert.Zero(t, rec.TrialCount)
	})

	t.Run("updated routes on the reported status", func(t *testing.T) {
		t.Parallel()
		d, store := newDispatcher(t)

		require.NoError(t, d.Dispatch(ctx, event(billing.EventSubscriptionUpdated, "sub_1", billing.EventAttributes{
			Status: "paused",
		})))

		rec, err := store.Get(ctx, testUser)
		require.NoError(t, err)
		assert.Equal(t, entitlement.StatusPaused, rec.SubscriptionStatus)
	})

	t.Run("updated with an unknown status is a no-op", func(t *testing.T) {
		t.Parallel()
		d, store := newDispatcher(t)

		require.NoError(t, d.Dispatch(ctx, event(billing.EventSubscriptionUpdated, "sub_1", billing.EventAttributes{
			Status: "on_hold",
		})))

		rec, err := store.Get(ctx, testUser)
		require.NoError(t, err)
		assert.Equal(t, entitlement.StatusNone, rec.SubscriptionStatus)
	})

	t.Run("payment failure changes nothing", func(t *testing.T) {
		t.Parallel()
		d, store := newDispatcher(t)
		expiry := time.Now().UTC().AddDate(0, 1, 0)
		rec := entitlement.NewRecord(testUser)
		rec.IsPremium = true
		rec.SubscriptionStatus = entitlement.StatusActive
		rec.PremiumExpiry = &expiry
		store.Seed(rec)

		require.NoError(t, d.Dispatch(ctx, event(billing.EventSubscriptionPaymentFailed, "sub_1", billing.EventAttributes{})))

		got, err := store.Get(ctx, testUser)
		require.NoError(t, err)
		assert.True(t, got.IsPremium)
		assert.Equal(t, entitlement.StatusActive, got.SubscriptionStatus)
	})
}

func TestDispatcher_Refunds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	seedPremium := func(store *entitlement.MemoryStore) *time.Time {
		expiry := time.Now().UTC().AddDate(0, 1, 0)
		rec := entitlement.NewRecord(testUser)
		rec.IsPremium = true
		rec.SubscriptionStatus = entitlement.StatusActive
		rec.PaymentType = entitlement.PaymentSubscription
		rec.PremiumExpiry = &expiry
		store.Seed(rec)
		return &expiry
	}

	t.Run("refund is recorded as denied without touching entitlement", func(t *testing.T) {
		t.Parallel()
		d, store := newDispatcher(t)
		expiry := seedPremium(store)

		require.NoError(t, d.Dispatch(ctx, event(billing.EventOrderRefunded, "order_1", billing.EventAttributes{
			Total: 999,
		})))

		got, err := store.Get(ctx, testUser)
		require.NoError(t, err)
		assert.True(t, got.IsPremium)
		assert.Equal(t, entitlement.StatusActive, got.SubscriptionStatus)
		require.NotNil(t, got.PremiumExpiry)
		assert.True(t, got.PremiumExpiry.Equal(*expiry))

		assert.Equal(t, entitlement.RefundDenied, got.RefundStatus)
		assert.Equal(t, int64(999), got.RefundAmount)
		assert.Equal(t, billing.RefundKindOrder, got.RefundReason)
		assert.NotNil(t, got.RefundAttemptDate)
	})

	t.Run("each refund kind is labeled", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			name  string
			event string
			kind  string
		}{
			{"subscription payment refund", billing.EventSubscriptionPaymentRefunded, billing.RefundKindSubscriptionPayment},
			{"cancellation refund", billing.EventSubscriptionRefundCancelled, billing.RefundKindCancellation},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()
				d, store := newDispatcher(t)
				seedPremium(store)

				require.NoError(t, d.Dispatch(ctx, event(tc.event, "evt_1", billing.EventAttributes{Total: 500})))

				got, err := store.Get(ctx, testUser)
				require.NoError(t, err)
				assert.True(t, got.IsPremium)
				assert.Equal(t, entitlement.RefundDenied, got.RefundStatus)
				assert.Equal(t, tc.kind, got.RefundReason)
			})
		}
	})
}
