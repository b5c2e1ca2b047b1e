package billing

import (
	"time"

	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/pkg/entitlement"
)

// Trial denial reasons.
const (
	DenyTrialAlreadyUsed   = "trial_already_used"
	DenyPremiumAlreadyUsed = "premium_already_used"
	DenyRecentCancellation = "recent_cancellation"
)

// recentCancellationWindow blocks a new trial shortly after a cancellation
// to defeat rapid cancel/resubscribe cycles.
const recentCancellationWindow = 24 * time.Hour

// TrialDecision is the outcome of the trial-abuse check.
type TrialDecision struct {
	Allowed bool
	Reason  string
}

// CanStartTrial decides whether a user is eligible for a new free trial
// based on their entitlement history. Checks run in order; the first match
// wins. A denied trial start is still recorded by the state machine so the
// abuse signal stays durable for support and audit.
func CanStartTrial(rec *entitlement.Record, now time.Time) TrialDecision {
	if rec.TrialCount >= 1 {
		return TrialDecision{Reason: DenyTrialAlreadyUsed}
	}

	if rec.CancellationReason == entitlement.ReasonTrialCancelled ||
		(rec.SubscriptionStatus == entitlement.StatusCancelled && rec.PaymentType == entitlement.PaymentTrial) {
		return TrialDecision{Reason: DenyTrialAlreadyUsed}
	}

	if rec.HasEverBeenPremium ||
		(rec.SubscriptionStatus == entitlement.StatusCancelled &&
			(rec.PaymentType == entitlement.PaymentSubscription || rec.PaymentType == entitlement.PaymentOneTime)) ||
		(rec.CancellationReason != "" && rec.CancellationReason != entitlement.ReasonTrialCancelled) {
		return TrialDecision{Reason: DenyPremiumAlreadyUsed}
	}

	if rec.TrialCancelledDate != nil && now.Sub(*rec.TrialCancelledDate) < recentCancellationWindow {
		return TrialDecision{Reason: DenyRecentCancellation}
	}

	return TrialDecision{Allowed: true}
}
