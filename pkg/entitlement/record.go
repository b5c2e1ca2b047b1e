package entitlement

import "time"

// SubscriptionStatus represents the current state of a user's subscription.
type SubscriptionStatus string

const (
	StatusNone      SubscriptionStatus = "none"
	StatusTrialing  SubscriptionStatus = "trialing"
	StatusActive    SubscriptionStatus = "active"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusPaused    SubscriptionStatus = "paused"
	StatusExpired   SubscriptionStatus = "expired"
)

// PaymentType records how the current entitlement was obtained.
type PaymentType string

const (
	PaymentNone         PaymentType = ""
	PaymentTrial        PaymentType = "trial"
	PaymentSubscription PaymentType = "subscription"
	PaymentOneTime      PaymentType = "one_time"
)

// RefundStatus is the outcome recorded for a refund attempt. The product
// policy honors no refunds, so the only value ever written is denied.
type RefundStatus string

const RefundDenied RefundStatus = "denied"

// Cancellation reasons written by the subscription handlers.
const (
	ReasonTrialCancelled     = "trial_cancelled"
	ReasonUserCancelled      = "user_cancelled"
	ReasonTrialAbuseDetected = "trial_abuse_detected"
)

// Record is the per-user entitlement document, keyed by the user's email.
// It is created on first usage check or first webhook referencing an unknown
// user and is never deleted.
type Record struct {
	UserID string `bson:"_id" json:"userId"`

	IsPremium          bool               `bson:"isPremium" json:"isPremium"`
	PremiumExpiry      *time.Time         `bson:"premiumExpiry,omitempty" json:"premiumExpiry,omitempty"`
	SubscriptionID     string             `bson:"subscriptionId,omitempty" json:"subscriptionId,omitempty"`
	SubscriptionStatus SubscriptionStatus `bson:"subscriptionStatus" json:"subscriptionStatus"`
	PaymentType        PaymentType        `bson:"paymentType,omitempty" json:"paymentType,omitempty"`

	// HasEverBeenPremium is monotonic: once true, no transition clears it.
	HasEverBeenPremium bool `bson:"hasEverBeenPremium" json:"hasEverBeenPremium"`

	// TrialCount never decreases. The trial-abuse guard, not this counter,
	// enforces the one-trial-ever rule.
	TrialCount         int        `bson:"trialCount" json:"trialCount"`
	LastTrialStartDate *time.Time `bson:"lastTrialStartDate,omitempty" json:"lastTrialStartDate,omitempty"`
	TrialCancelledDate *time.Time `bson:"trialCancelledDate,omitempty" json:"trialCancelledDate,omitempty"`
	CancellationReason string     `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	NextRenewalDate    *time.Time `bson:"nextRenewalDate,omitempty" json:"nextRenewalDate,omitempty"`

	// Refund bookkeeping. Entitlement fields are never touched by refunds.
	RefundAttemptDate *time.Time   `bson:"refundAttemptDate,omitempty" json:"refundAttemptDate,omitempty"`
	RefundAmount      int64        `bson:"refundAmount,omitempty" json:"refundAmount,omitempty"`
	RefundStatus      RefundStatus `bson:"refundStatus,omitempty" json:"refundStatus,omitempty"`
	RefundReason      string       `bson:"refundReason,omitempty" json:"refundReason,omitempty"`

	// Daily usage counters, each with its own lazy-reset date (YYYY-MM-DD, UTC).
	Usage                       int64  `bson:"usage" json:"usage"`
	UsageLastReset              string `bson:"usageLastReset,omitempty" json:"usageLastReset,omitempty"`
	WorkspaceUsage              int64  `bson:"workspaceUsage" json:"workspaceUsage"`
	WorkspaceUsageLastReset     string `bson:"workspaceUsageLastReset,omitempty" json:"workspaceUsageLastReset,omitempty"`
	ShareUsage                  int64  `bson:"shareUsage" json:"shareUsage"`
	ShareUsageLastReset         string `bson:"shareUsageLastReset,omitempty" json:"shareUsageLastReset,omitempty"`
	ImageAnalysisUsage          int64  `bson:"imageAnalysisUsage" json:"imageAnalysisUsage"`
	ImageAnalysisUsageLastReset string `bson:"imageAnalysisUsageLastReset,omitempty" json:"imageAnalysisUsageLastReset,omitempty"`

	// Version increases on every write and backs conditional updates.
	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewRecord returns the defaults for a freshly created user record.
func NewRecord(userID string) *Record {
	return &Record{
		UserID:             userID,
		SubscriptionStatus: StatusNone,
	}
}

// PremiumExpired reports whether the record holds a stale premium grant:
// isPremium is set but the expiry instant has passed. A nil expiry is a
// lifetime grant and never expires.
func (r *Record) PremiumExpired(now time.Time) bool {
	if !r.IsPremium || r.PremiumExpiry == nil {
		return false
	}
	return now.After(*r.PremiumExpiry)
}

// PremiumAt reports whether the user should be treated as premium at the
// given instant, regardless of what is persisted.
func (r *Record) PremiumAt(now time.Time) bool {
	return r.IsPremium && !r.PremiumExpired(now)
}
