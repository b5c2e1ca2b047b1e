package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/pkg/entitlement"
)

// quotaDef binds a category to its record fields and free-tier limit.
type quotaDef struct {
	counterField string
	resetField   string
	limit        int64
	blockReason  string
}

var quotas = map[Category]quotaDef{
	CategoryGeneral:   {entitlement.FieldUsage, entitlement.FieldUsageLastReset, GeneralDailyLimit, ReasonTotalLimitReached},
	CategoryWorkspace: {entitlement.FieldWorkspaceUsage, entitlement.FieldWorkspaceUsageLastReset, WorkspaceDailyLimit, ReasonWorkspaceLimitReached},
	CategoryShare:     {entitlement.FieldShareUsage, entitlement.FieldShareUsageLastReset, ShareDailyLimit, ReasonShareLimitReached},
	CategoryImage:     {entitlement.FieldImageAnalysisUsage, entitlement.FieldImageAnalysisUsageLastReset, ImageDailyLimit, ReasonImageLimitReached},
}

// Tracker answers quota checks and performs increments against the
// entitlement store. Counters reset lazily: the first read after the UTC
// date advances zeroes the counter before the check is evaluated. A store
// failure during a check fails closed so infrastructure trouble cannot
// become a quota bypass.
type Tracker struct {
	store entitlement.Store
	log   *slog.Logger
	now   func() time.Time
}

func NewTracker(store entitlement.Store, log *slog.Logger) *Tracker {
	return &Tracker{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the tracker clock, for tests.
func (t *Tracker) SetClock(now func() time.Time) { t.now = now }

// Check reports whether the user can perform an action in the category
// today, resetting stale daily counters first. The record is created on
// first check for an unknown user.
func (t *Tracker) Check(ctx context.Context, userID string, cat Category) (*Status, error) {
	st, _, err := t.check(ctx, userID, cat)
	return st, err
}

// Consume performs a check and, when allowed, counts the action. The
// returned status reflects the state before the increment, so a user's
// first action of the day reports used=0. A concurrent consumer racing
// past the same check cannot overshoot: the increment itself is bounded
// at the store layer.
func (t *Tracker) Consume(ctx context.Context, userID string, cat Category) (*Status, error) {
	st, rec, err := t.check(ctx, userID, cat)
	if err != nil {
		return nil, err
	}
	if !st.CanUse {
		return st, nil
	}

	if err := t.increment(ctx, rec.UserID, cat, st.IsPremium); err != nil {
		if errors.Is(err, entitlement.ErrLimitReached) {
			// Lost the race against a concurrent request; report the
			// now-exhausted quota instead.
			st, _, err = t.check(ctx, userID, cat)
			return st, err
		}
		return nil, err
	}
	return st, nil
}

// Increment counts an already-authorized action. Workspace increments apply
// to both the workspace counter and the general pool in one atomic write.
func (t *Tracker) Increment(ctx context.Context, userID string, cat Category) error {
	_, rec, err := t.check(ctx, userID, cat)
	if err != nil {
		return err
	}
	return t.increment(ctx, rec.UserID, cat, rec.PremiumAt(t.now()))
}

func (t *Tracker) check(ctx context.Context, userID string, cat Category) (*Status, *entitlement.Record, error) {
	def, ok := quotas[cat]
	if !ok {
		return nil, nil, fmt.Errorf("unknown usage category %q", cat)
	}

	rec, err := t.store.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	now := t.now()
	if err := entitlement.Refresh(ctx, t.store, rec, now); err != nil {
		return nil, nil, err
	}

	if err := t.maybeReset(ctx, rec, cat, now); err != nil {
		return nil, nil, err
	}

	if rec.PremiumAt(now) {
		return &Status{
			CanUse:     true,
			Used:       counterValue(rec, def.counterField),
			Remaining:  Unlimited,
			Limit:      Unlimited,
			Percentage: -1,
			IsPremium:  true,
		}, rec, nil
	}

	used := counterValue(rec, def.counterField)
	st := &Status{
		Used:       used,
		Limit:      def.limit,
		Remaining:  max(def.limit-used, 0),
		Percentage: percentage(used, def.limit),
		CanUse:     used < def.limit,
	}
	if !st.CanUse {
		st.Reason = def.blockReason
	}

	// Workspace actions also draw from the general pool; a check must
	// report which of the two limits blocked the action.
	if cat == CategoryWorkspace {
		totalUsed := rec.Usage
		totalLimit := GeneralDailyLimit
		st.TotalUsed = &totalUsed
		st.TotalLimit = &totalLimit
		if st.CanUse && totalUsed >= totalLimit {
			st.CanUse = false
			st.Reason = ReasonTotalLimitReached
		}
	}

	return st, rec, nil
}

// maybeReset zeroes every counter whose reset date trails the current UTC
// date, before any check is evaluated. Workspace checks also refresh the
// general counter since both gates apply.
func (t *Tracker) maybeReset(ctx context.Context, rec *entitlement.Record, cat Category, now time.Time) error {
	today := now.Format(time.DateOnly)

	set := map[string]any{}
	reset := func(def quotaDef, last string) {
		if last != today {
			set[def.counterField] = int64(0)
			set[def.resetField] = today
		}
	}

	switch cat {
	case CategoryGeneral:
		reset(quotas[CategoryGeneral], rec.UsageLastReset)
	case CategoryWorkspace:
		reset(quotas[CategoryWorkspace], rec.WorkspaceUsageLastReset)
		reset(quotas[CategoryGeneral], rec.UsageLastReset)
	case CategoryShare:
		reset(quotas[CategoryShare], rec.ShareUsageLastReset)
	case CategoryImage:
		reset(quotas[CategoryImage], rec.ImageAnalysisUsageLastReset)
	}

	if len(set) == 0 {
		return nil
	}

	if err := t.store.Update(ctx, rec.UserID, entitlement.Patch{Set: set}); err != nil {
		return err
	}

	// Mirror the persisted reset locally so the evaluation below sees a
	// fresh quota.
	for field, value := range set {
		switch field {
		case entitlement.FieldUsage:
			rec.Usage = 0
		case entitlement.FieldUsageLastReset:
			rec.UsageLastReset = value.(string)
		case entitlement.FieldWorkspaceUsage:
			rec.WorkspaceUsage = 0
		case entitlement.FieldWorkspaceUsageLastReset:
			rec.WorkspaceUsageLastReset = value.(string)
		case entitlement.FieldShareUsage:
			rec.ShareUsage = 0
		case entitlement.FieldShareUsageLastReset:
			rec.ShareUsageLastReset = value.(string)
		case entitlement.FieldImageAnalysisUsage:
			rec.ImageAnalysisUsage = 0
		case entitlement.FieldImageAnalysisUsageLastReset:
			rec.ImageAnalysisUsageLastReset = value.(string)
		}
	}
	return nil
}

func (t *Tracker) increment(ctx context.Context, userID string, cat Category, premium bool) error {
	inc := map[string]int64{quotas[cat].counterField: 1}
	below := map[string]int64{quotas[cat].counterField: quotas[cat].limit}

	// A workspace action is a subset of total AI actions: both counters
	// move together, both-or-neither.
	if cat == CategoryWorkspace {
		inc[entitlement.FieldUsage] = 1
		below[entitlement.FieldUsage] = GeneralDailyLimit
	}

	// Premium users bypass the limits but their activity is still counted.
	if premium {
		return t.store.Update(ctx, userID, entitlement.Patch{Inc: inc})
	}

	return t.store.BoundedIncrement(ctx, userID, inc, below)
}

func counterValue(rec *entitlement.Record, field string) int64 {
	switch field {
	case entitlement.FieldUsage:
		return rec.Usage
	case entitlement.FieldWorkspaceUsage:
		return rec.WorkspaceUsage
	case entitlement.FieldShareUsage:
		return rec.ShareUsage
	case entitlement.FieldImageAnalysisUsage:
		return rec.ImageAnalysisUsage
	default:
		return 0
	}
}

func percentage(used, limit int64) int {
	if limit <= 0 {
		return 100
	}
	return min(int((used*100)/limit), 100)
}
