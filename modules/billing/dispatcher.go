package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/pkg/entitlement"
)

// transitionRetries bounds how many times a transition is recomputed after
// a stale-version write, before giving up and letting the provider redeliver.
const transitionRetries = 3

// Dispatcher routes a parsed provider event by its name to the subscription
// state machine or the refund enforcer. It holds no per-event state of its
// own: dedup, per-user locking, and record loading happen here, the actual
// transitions in the collaborators.
type Dispatcher struct {
	store   entitlement.Store
	machine *StateMachine
	refunds *RefundEnforcer
	dedup   Deduplicator
	locks   *keyedMutex
	log     *slog.Logger
	now     func() time.Time
}

func NewDispatcher(store entitlement.Store, machine *StateMachine, refunds *RefundEnforcer, dedup Deduplicator, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:   store,
		machine: machine,
		refunds: refunds,
		dedup:   dedup,
		locks:   newKeyedMutex(),
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch applies a verified, parsed event. A nil return means the event
// was handled or deliberately ignored and should be acknowledged with 2xx;
// an error means a transient failure the provider should redeliver on.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *Event) error {
	name := ev.Meta.EventName

	email := ev.UserEmail()
	if email == "" {
		// Retrying cannot fix a payload that lacks the user identity,
		// so acknowledge instead of failing.
		d.log.WarnContext(ctx, "webhook payload carries no user identity",
			slog.String("event", name),
			slog.String("event_id", ev.Data.ID))
		return nil
	}

	if ev.Data.ID != "" {
		seen, err := d.dedup.Seen(ctx, name+":"+ev.Data.ID)
		if err != nil {
			d.log.WarnContext(ctx, "dedup lookup failed, processing anyway",
				slog.String("event_id", ev.Data.ID), slog.Any("error", err))
		} else if seen {
			d.log.InfoContext(ctx, "duplicate webhook delivery acknowledged",
				slog.String("event", name),
				slog.String("event_id", ev.Data.ID))
			return nil
		}
	}

	unlock := d.locks.Lock(email)
	defer unlock()

	var err error
	for attempt := 0; attempt < transitionRetries; attempt++ {
		var rec *entitlement.Record
		rec, err = d.store.GetOrCreate(ctx, email)
		if err != nil {
			return fmt.Errorf("load entitlement record: %w", err)
		}

		err = d.route(ctx, name, rec, ev)
		if !errors.Is(err, entitlement.ErrPreconditionFailed) {
			break
		}
		d.log.WarnContext(ctx, "transition lost version race, retrying",
			slog.String("user", email), slog.String("event", name))
	}
	if err != nil {
		return err
	}

	if ev.Data.ID != "" {
		if err := d.dedup.Mark(ctx, name+":"+ev.Data.ID); err != nil {
			d.log.WarnContext(ctx, "failed to mark event as processed",
				slog.String("event_id", ev.Data.ID), slog.Any("error", err))
		}
	}
	return nil
}

func (d *Dispatcher) route(ctx context.Context, name string, rec *entitlement.Record, ev *Event) error {
	switch name {
	case EventSubscriptionCreated:
		if ev.IsTrialStart(d.now()) {
			return d.machine.StartTrial(ctx, rec, ev)
		}
		return d.machine.Activate(ctx, rec, ev)

	case EventSubscriptionPaymentSuccess, EventSubscriptionPaymentRecovered:
		return d.machine.Activate(ctx, rec, ev)

	case EventSubscriptionUpdated:
		return d.routeByStatus(ctx, rec, ev)

	case EventSubscriptionCancelled:
		return d.machine.Cancel(ctx, rec, ev)

	case EventSubscriptionExpired:
		return d.machine.Expire(ctx, rec, ev)

	case EventSubscriptionPaused:
		return d.machine.Pause(ctx, rec, ev)

	case EventSubscriptionUnpaused, EventSubscriptionResumed:
		return d.machine.Resume(ctx, rec, ev)

	case EventSubscriptionPaymentFailed:
		// No entitlement change: the provider's own dunning decides the
		// outcome and sends subscription_expired if recovery fails.
		d.log.InfoContext(ctx, "subscription payment failed",
			slog.String("user", rec.UserID),
			slog.String("subscription_id", ev.Data.ID))
		return nil

	case EventOrderCreated:
		return d.machine.ActivateOneTime(ctx, rec, ev)

	case EventOrderRefunded:
		return d.refunds.RecordAttempt(ctx, rec, RefundKindOrder, ev.Data.Attributes.Total)

	case EventSubscriptionPaymentRefunded:
		return d.refunds.RecordAttempt(ctx, rec, RefundKindSubscriptionPayment, ev.Data.Attributes.Total)

	case EventSubscriptionRefundCancelled:
		return d.refunds.RecordAttempt(ctx, rec, RefundKindCancellation, ev.Data.Attributes.Total)

	default:
		// Unrecognized types are acknowledged so the provider can add
		// event types without breaking ingestion.
		d.log.InfoContext(ctx, "ignoring unrecognized webhook event",
			slog.String("event", name))
		return nil
	}
}

// routeByStatus resyncs the record from the status a subscription_updated
// event reports.
func (d *Dispatcher) routeByStatus(ctx context.Context, rec *entitlement.Record, ev *Event) error {
	switch ev.Data.Attributes.Status {
	case "active":
		return d.machine.Activate(ctx, rec, ev)
	case "cancelled":
		return d.machine.Cancel(ctx, rec, ev)
	case "expired":
		return d.machine.Expire(ctx, rec, ev)
	case "paused":
		return d.machine.Pause(ctx, rec, ev)
	default:
		d.log.InfoContext(ctx, "unknown subscription status, ignoring",
			slog.String("user", rec.UserID),
			slog.String("status", ev.Data.Attributes.Status))
		return nil
	}
}
