package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/pkg/entitlement"
)

// Refund kinds recorded for bookkeeping.
const (
	RefundKindOrder               = "order_refund"
	RefundKindSubscriptionPayment = "subscription_payment_refund"
	RefundKindCancellation        = "refund_cancellation"
)

// RefundEnforcer records refund and chargeback notifications without
// altering entitlement. The product honors no refunds: every attempt is
// persisted as denied, and isPremium, premiumExpiry, and subscriptionStatus
// are left untouched. This divergence from the usual refund-revokes-access
// behavior is deliberate product policy.
type RefundEnforcer struct {
	store entitlement.Store
	log   *slog.Logger
	now   func() time.Time
}

func NewRefundEnforcer(store entitlement.Store, log *slog.Logger) *RefundEnforcer {
	return &RefundEnforcer{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// RecordAttempt persists the refund bookkeeping fields only.
func (e *RefundEnforcer) RecordAttempt(ctx context.Context, rec *entitlement.Record, kind string, amount int64) error {
	e.log.InfoContext(ctx, "refund attempt recorded as denied",
		slog.String("user", rec.UserID),
		slog.String("kind", kind),
		slog.Int64("amount", amount))

	return e.store.Update(ctx, rec.UserID, entitlement.Patch{Set: map[string]any{
		entitlement.FieldRefundAttemptDate: e.now(),
		entitlement.FieldRefundAmount:      amount,
		entitlement.FieldRefundStatus:      entitlement.RefundDenied,
		entitlement.FieldRefundReason:      kind,
	}})
}
