package entitlement

import "errors"

var (
	ErrNotFound           = errors.New("entitlement record not found")
	ErrPreconditionFailed = errors.New("entitlement update precondition failed")
	ErrLimitReached       = errors.New("entitlement counter limit reached")
	ErrStoreUnavailable   = errors.New("entitlement store unavailable")
)
