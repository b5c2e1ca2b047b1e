package entitlement

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation for tests and
// single-process setups. It honors the same patch semantics as MongoStore,
// including precondition checks and bounded increments.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the store clock, for tests that need a fixed time.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (s *MemoryStore) GetOrCreate(ctx context.Context, userID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		rec = NewRecord(userID)
		rec.CreatedAt = s.now()
		rec.UpdatedAt = rec.CreatedAt
		s.records[userID] = rec
	}
	clone := *rec
	return &clone, nil
}

// Seed inserts a record directly, for test setup.
func (s *MemoryStore) Seed(rec *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *rec
	s.records[rec.UserID] = &clone
}

func (s *MemoryStore) Update(ctx context.Context, userID string, patch Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return ErrNotFound
	}
	return s.apply(rec, patch)
}

func (s *MemoryStore) UpdateIf(ctx context.Context, userID string, cond map[string]any, patch Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return ErrNotFound
	}
	for field, want := range cond {
		if fmt.Sprint(fieldValue(rec, field)) != fmt.Sprint(want) {
			return ErrPreconditionFailed
		}
	}
	return s.apply(rec, patch)
}

func (s *MemoryStore) BoundedIncrement(ctx context.Context, userID string, inc map[string]int64, below map[string]int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return ErrNotFound
	}
	for field, bound := range below {
		current, ok := fieldValue(rec, field).(int64)
		if !ok || current >= bound {
			return ErrLimitReached
		}
	}
	return s.apply(rec, Patch{Inc: inc})
}

func (s *MemoryStore) apply(rec *Record, patch Patch) error {
	for field, value := range patch.Set {
		if err := setField(rec, field, value); err != nil {
			return err
		}
	}
	for field, delta := range patch.Inc {
		if err := incField(rec, field, delta); err != nil {
			return err
		}
	}
	rec.Version++
	rec.UpdatedAt = s.now()
	return nil
}

func setField(rec *Record, field string, value any) error {
	switch field {
	case FieldIsPremium:
		rec.IsPremium = value.(bool)
	case FieldPremiumExpiry:
		rec.PremiumExpiry = asTimePtr(value)
	case FieldSubscriptionID:
		rec.SubscriptionID = asString(value)
	case FieldSubscriptionStatus:
		rec.SubscriptionStatus = SubscriptionStatus(asString(value))
	case FieldPaymentType:
		rec.PaymentType = PaymentType(asString(value))
	case FieldHasEverBeenPremium:
		rec.HasEverBeenPremium = value.(bool)
	case FieldTrialCount:
		rec.TrialCount = int(asInt64(value))
	case FieldLastTrialStartDate:
		rec.LastTrialStartDate = asTimePtr(value)
	case FieldTrialCancelledDate:
		rec.TrialCancelledDate = asTimePtr(value)
	case FieldCancellationReason:
		rec.CancellationReason = asString(value)
	case FieldNextRenewalDate:
		rec.NextRenewalDate = asTimePtr(value)
	case FieldRefundAttemptDate:
		rec.RefundAttemptDate = asTimePtr(value)
	case FieldRefundAmount:
		rec.RefundAmount = asInt64(value)
	case FieldRefundStatus:
		rec.RefundStatus = RefundStatus(asString(value))
	case FieldRefundReason:
		rec.RefundReason = asString(value)
	case FieldUsage:
		rec.Usage = asInt64(value)
	case FieldUsageLastReset:
		rec.UsageLastReset = asString(value)
	case FieldWorkspaceUsage:
		rec.WorkspaceUsage = asInt64(value)
	case FieldWorkspaceUsageLastReset:
		rec.WorkspaceUsageLastReset = asString(value)
	case FieldShareUsage:
		rec.ShareUsage = asInt64(value)
	case FieldShareUsageLastReset:
		rec.ShareUsageLastReset = asString(value)
	case FieldImageAnalysisUsage:
		rec.ImageAnalysisUsage = asInt64(value)
	case FieldImageAnalysisUsageLastReset:
		rec.ImageAnalysisUsageLastReset = asString(value)
	default:
		return fmt.Errorf("unknown record field %q", field)
	}
	return nil
}

func incField(rec *Record, field string, delta int64) error {
	switch field {
	case FieldTrialCount:
		rec.TrialCount += int(delta)
	case FieldUsage:
		rec.Usage += delta
	case FieldWorkspaceUsage:
		rec.WorkspaceUsage += delta
	case FieldShareUsage:
		rec.ShareUsage += delta
	case FieldImageAnalysisUsage:
		rec.ImageAnalysisUsage += delta
	default:
		return fmt.Errorf("field %q is not a counter", field)
	}
	return nil
}

func fieldValue(rec *Record, field string) any {
	switch field {
	case FieldIsPremium:
		return rec.IsPremium
	case FieldSubscriptionStatus:
		return string(rec.SubscriptionStatus)
	case FieldPaymentType:
		return string(rec.PaymentType)
	case FieldTrialCount:
		return int64(rec.TrialCount)
	case FieldUsage:
		return rec.Usage
	case FieldWorkspaceUsage:
		return rec.WorkspaceUsage
	case FieldShareUsage:
		return rec.ShareUsage
	case FieldImageAnalysisUsage:
		return rec.ImageAnalysisUsage
	case FieldVersion:
		return rec.Version
	default:
		return nil
	}
}

func asString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case SubscriptionStatus:
		return string(v)
	case PaymentType:
		return string(v)
	case RefundStatus:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func asInt64(value any) int64 {
	switch v := value.(type) {
	case nil:
		return 0
	case int:
		return int64(v)
	case int64:
		return v
	default:
		return 0
	}
}

func asTimePtr(value any) *time.Time {
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		return &v
	case *time.Time:
		return v
	default:
		return nil
	}
}
