package entitlement

import (
	"context"
	"time"
)

// Patch describes a partial update to a record. Set values of nil clear the
// field. Inc values are applied as atomic integer increments. Every applied
// patch also bumps the record version and refreshes the updatedAt timestamp
// server-side.
type Patch struct {
	Set map[string]any
	Inc map[string]int64
}

// Store is the narrow persistence contract the entitlement core requires
// from a document database: point reads, partial field updates with atomic
// counters and server-assigned timestamps, and conditional writes for safe
// concurrent transitions.
type Store interface {
	// Get retrieves a record by user ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, userID string) (*Record, error)

	// GetOrCreate retrieves a record, creating it with defaults if absent.
	GetOrCreate(ctx context.Context, userID string) (*Record, error)

	// Update applies a partial update unconditionally.
	Update(ctx context.Context, userID string, patch Patch) error

	// UpdateIf applies a partial update only while every cond field still
	// equals the given value. Returns ErrPreconditionFailed otherwise.
	UpdateIf(ctx context.Context, userID string, cond map[string]any, patch Patch) error

	// BoundedIncrement atomically increments the inc counters only while
	// every below field is strictly under its bound, so concurrent
	// check-then-increment cycles cannot jointly overshoot a limit.
	// Returns ErrLimitReached when a bound blocks the increment.
	BoundedIncrement(ctx context.Context, userID string, inc map[string]int64, below map[string]int64) error
}

// Refresh applies the lazy-expiry check to a record: when a stored premium
// grant has lapsed, the downgrade is persisted before the caller proceeds
// as a free user. Every read path that gates on premium must go through
// this. The passed record is mutated to match what was persisted.
func Refresh(ctx context.Context, store Store, rec *Record, now time.Time) error {
	if !rec.PremiumExpired(now) {
		return nil
	}

	err := store.Update(ctx, rec.UserID, Patch{Set: map[string]any{
		FieldIsPremium:      false,
		FieldPremiumExpiry:  nil,
		FieldSubscriptionID: nil,
		FieldPaymentType:    nil,
	}})
	if err != nil {
		return err
	}

	rec.IsPremium = false
	rec.PremiumExpiry = nil
	rec.SubscriptionID = ""
	rec.PaymentType = PaymentNone
	return nil
}
