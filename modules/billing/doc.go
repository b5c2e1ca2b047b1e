// Package billing ingests payment-provider webhooks and applies them to
// user entitlement records: signature verification, event dispatch, the
// subscription state machine, the trial-abuse guard, and the no-refund
// policy.
package billing
