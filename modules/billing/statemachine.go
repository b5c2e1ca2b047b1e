package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/pkg/entitlement"
)

// Fallback expiry windows used when the provider payload omits the
// corresponding instant. Logged at WARN since they indicate an unexpected
// payload shape.
const (
	fallbackRenewalPeriod = 30 * 24 * time.Hour
	fallbackTrialPeriod   = 7 * 24 * time.Hour
	oneTimePeriod         = 365 * 24 * time.Hour
)

// StateMachine applies verified provider events to a user's entitlement
// record, producing the next state and the fields to persist. All writes are
// conditional on the record version the decision was computed from, so a
// concurrent transition for the same user cannot be silently clobbered.
type StateMachine struct {
	store entitlement.Store
	log   *slog.Logger
	now   func() time.Time
}

func NewStateMachine(store entitlement.Store, log *slog.Logger) *StateMachine {
	return &StateMachine{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (m *StateMachine) update(ctx context.Context, rec *entitlement.Record, patch entitlement.Patch) error {
	cond := map[string]any{entitlement.FieldVersion: rec.Version}
	return m.store.UpdateIf(ctx, rec.UserID, cond, patch)
}

// StartTrial grants a trial entitlement, or records the abuse signal when
// the trial-abuse guard denies it. A denied trial start is never silently
// dropped.
func (m *StateMachine) StartTrial(ctx context.Context, rec *entitlement.Record, ev *Event) error {
	now := m.now()

	if decision := CanStartTrial(rec, now); !decision.Allowed {
		m.log.WarnContext(ctx, "trial start denied",
			slog.String("user", rec.UserID),
			slog.String("reason", decision.Reason))
		return m.update(ctx, rec, entitlement.Patch{Set: map[string]any{
			entitlement.FieldSubscriptionStatus: entitlement.StatusCancelled,
			entitlement.FieldCancellationReason: entitlement.ReasonTrialAbuseDetected,
		}})
	}

	trialEnd := now.Add(fallbackTrialPeriod)
	if ev.Data.Attributes.TrialEndsAt != nil {
		trialEnd = *ev.Data.Attributes.TrialEndsAt
	} else {
		m.log.WarnContext(ctx, "trial start without trial_ends_at, using fallback",
			slog.String("user", rec.UserID))
	}

	set := map[string]any{
		entitlement.FieldIsPremium:          true,
		entitlement.FieldPaymentType:        entitlement.PaymentTrial,
		entitlement.FieldSubscriptionStatus: entitlement.StatusTrialing,
		entitlement.FieldPremiumExpiry:      trialEnd,
		entitlement.FieldSubscriptionID:     ev.Data.ID,
		entitlement.FieldLastTrialStartDate: now,
	}
	if ev.Data.Attributes.RenewsAt != nil {
		set[entitlement.FieldNextRenewalDate] = *ev.Data.Attributes.RenewsAt
	} else {
		set[entitlement.FieldNextRenewalDate] = nil
	}

	return m.update(ctx, rec, entitlement.Patch{
		Set: set,
		Inc: map[string]int64{entitlement.FieldTrialCount: 1},
	})
}

// Activate handles a trial converting to paid or a recurring charge
// succeeding. Without a renews_at instant the expiry falls back to 30 days.
func (m *StateMachine) Activate(ctx context.Context, rec *entitlement.Record, ev *Event) error {
	expiry := m.now().Add(fallbackRenewalPeriod)
	if ev.Data.Attributes.RenewsAt != nil {
		expiry = *ev.Data.Attributes.RenewsAt
	} else {
		m.log.WarnContext(ctx, "activation without renews_at, using 30 day fallback",
			slog.String("user", rec.UserID))
	}

	set := map[string]any{
		entitlement.FieldIsPremium:          true,
		entitlement.FieldPaymentType:        entitlement.PaymentSubscription,
		entitlement.FieldSubscriptionStatus: entitlement.StatusActive,
		entitlement.FieldPremiumExpiry:      expiry,
		entitlement.FieldNextRenewalDate:    expiry,
		entitlement.FieldHasEverBeenPremium: true,
		entitlement.FieldLastTrialStartDate: nil,
	}
	if ev.Data.ID != "" {
		set[entitlement.FieldSubscriptionID] = ev.Data.ID
	}

	return m.update(ctx, rec, entitlement.Patch{Set: set})
}

// ActivateOneTime handles a non-subscription order: a lifetime-style grant
// valid for one year.
func (m *StateMachine) ActivateOneTime(ctx context.Context, rec *entitlement.Record, ev *Event) error {
	set := map[string]any{
		entitlement.FieldIsPremium:          true,
		entitlement.FieldPaymentType:        entitlement.PaymentOneTime,
		entitlement.FieldSubscriptionStatus: entitlement.StatusActive,
		entitlement.FieldPremiumExpiry:      m.now().Add(oneTimePeriod),
		entitlement.FieldHasEverBeenPremium: true,
	}
	if ev.Data.ID != "" {
		set[entitlement.FieldSubscriptionID] = ev.Data.ID
	}

	return m.update(ctx, rec, entitlement.Patch{Set: set})
}

// Cancel branches on whether the cancelled item was still inside its trial
// window. Trials are revoked immediately; paid subscriptions keep access
// until the already-paid-for period lapses (grace period, modeled by the
// lazy-expiry check).
func (m *StateMachine) Cancel(ctx context.Context, rec *entitlement.Record, ev *Event) error {
	now := m.now()
	attrs := ev.Data.Attributes

	if attrs.TrialEndsAt != nil && attrs.TrialEndsAt.After(now) {
		reason := attrs.CancellationReason
		if reason == "" {
			reason = entitlement.ReasonTrialCancelled
		}
		return m.update(ctx, rec, entitlement.Patch{Set: map[string]any{
			entitlement.FieldIsPremium:          false,
			entitlement.FieldPremiumExpiry:      nil,
			entitlement.FieldSubscriptionStatus: entitlement.StatusCancelled,
			entitlement.FieldCancellationReason: reason,
			entitlement.FieldTrialCancelledDate: now,
		}})
	}

	expiry := now
	if attrs.EndsAt != nil {
		expiry = *attrs.EndsAt
	}
	reason := attrs.CancellationReason
	if reason == "" {
		reason = entitlement.ReasonUserCancelled
	}

	// isPremium is deliberately left true: access remains until expiry
	// lapses and the lazy-expiry check downgrades the record.
	return m.update(ctx, rec, entitlement.Patch{Set: map[string]any{
		entitlement.FieldSubscriptionStatus: entitlement.StatusCancelled,
		entitlement.FieldPremiumExpiry:      expiry,
		entitlement.FieldCancellationReason: reason,
	}})
}

// Expire performs the immediate hard revoke, clearing subscription metadata.
func (m *StateMachine) Expire(ctx context.Context, rec *entitlement.Record, _ *Event) error {
	return m.update(ctx, rec, entitlement.Patch{Set: map[string]any{
		entitlement.FieldIsPremium:          false,
		entitlement.FieldPremiumExpiry:      nil,
		entitlement.FieldSubscriptionID:     nil,
		entitlement.FieldPaymentType:        nil,
		entitlement.FieldSubscriptionStatus: entitlement.StatusExpired,
	}})
}

// Pause suspends access but keeps subscription metadata, unlike Expire.
func (m *StateMachine) Pause(ctx context.Context, rec *entitlement.Record, _ *Event) error {
	return m.update(ctx, rec, entitlement.Patch{Set: map[string]any{
		entitlement.FieldIsPremium:          false,
		entitlement.FieldSubscriptionStatus: entitlement.StatusPaused,
	}})
}

// Resume restores access. A resume payload does not reliably carry the next
// renewal instant, so expiry falls back to 30 days out.
func (m *StateMachine) Resume(ctx context.Context, rec *entitlement.Record, _ *Event) error {
	return m.update(ctx, rec, entitlement.Patch{Set: map[string]any{
		entitlement.FieldIsPremium:          true,
		entitlement.FieldPaymentType:        entitlement.PaymentSubscription,
		entitlement.FieldSubscriptionStatus: entitlement.StatusActive,
		entitlement.FieldPremiumExpiry:      m.now().Add(fallbackRenewalPeriod),
	}})
}
