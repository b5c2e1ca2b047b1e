package billing

import "time"

// Provider event names recognized by the dispatcher. The set is closed:
// anything else is logged and acknowledged without state change so the
// provider can add event types without breaking ingestion.
const (
	EventSubscriptionCreated          = "subscription_created"
	EventSubscriptionUpdated          = "subscription_updated"
	EventSubscriptionCancelled        = "subscription_cancelled"
	EventSubscriptionExpired          = "subscription_expired"
	EventSubscriptionPaused           = "subscription_paused"
	EventSubscriptionUnpaused         = "subscription_unpaused"
	EventSubscriptionResumed          = "subscription_resumed"
	EventSubscriptionPaymentSuccess   = "subscription_payment_success"
	EventSubscriptionPaymentFailed    = "subscription_payment_failed"
	EventSubscriptionPaymentRecovered = "subscription_payment_recovered"
	EventOrderCreated                 = "order_created"
	EventOrderRefunded                = "order_refunded"
	EventSubscriptionPaymentRefunded  = "subscription_payment_refunded"
	EventSubscriptionRefundCancelled  = "subscription_refund_cancelled"
)

// Event is the parsed provider webhook payload.
type Event struct {
	Meta EventMeta `json:"meta"`
	Data EventData `json:"data"`
}

type EventMeta struct {
	EventName string `json:"event_name"`
}

type EventData struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes EventAttributes `json:"attributes"`
}

type EventAttributes struct {
	Status             string        `json:"status,omitempty"`
	TrialEndsAt        *time.Time    `json:"trial_ends_at,omitempty"`
	RenewsAt           *time.Time    `json:"renews_at,omitempty"`
	EndsAt             *time.Time    `json:"ends_at,omitempty"`
	CancellationReason string        `json:"cancellation_reason,omitempty"`
	Total              int64         `json:"total,omitempty"`
	Email              string        `json:"email,omitempty"`
	UserEmail          string        `json:"user_email,omitempty"`
	CheckoutData       *CheckoutData `json:"checkout_data,omitempty"`
}

type CheckoutData struct {
	Email string `json:"email,omitempty"`
}

// UserEmail extracts the user identity from the payload, checking the
// attribute fields in provider precedence order. Empty when the payload
// carries no identity at all.
func (e *Event) UserEmail() string {
	attrs := e.Data.Attributes
	if attrs.UserEmail != "" {
		return attrs.UserEmail
	}
	if attrs.Email != "" {
		return attrs.Email
	}
	if attrs.CheckoutData != nil {
		return attrs.CheckoutData.Email
	}
	return ""
}

// IsTrialStart reports whether a subscription-created event represents a
// trial start: the payload carries a trial-end instant that is still in the
// future at processing time. Otherwise it is a paid activation.
func (e *Event) IsTrialStart(now time.Time) bool {
	t := e.Data.Attributes.TrialEndsAt
	return t != nil && t.After(now)
}
