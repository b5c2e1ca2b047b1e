package usage_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/modules/usage"
	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/pkg/entitlement"
)

const testUser = "user@example.com"

func newTracker(t *testing.T) (*usage.Tracker, *entitlement.MemoryStore) {
	t.Helper()
	store := entitlement.NewMemoryStore()
	return usage.NewTracker(store, slog.New(slog.DiscardHandler)), store
}

func TestTracker_Workspace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("first action of the day reports a fresh quota", func(t *testing.T) {
		t.Parallel()
		tracker, _ := newTracker(t)

		st, err := tracker.Consume(ctx, testUser, usage.CategoryWorkspace)
		require.NoError(t, err)
		assert.True(t, st.CanUse)
		assert.Equal(t, int64(0), st.Used)
		assert.Equal(t, usage.WorkspaceDailyLimit, st.Limit)
		require.NotNil(t, st.TotalUsed)
		assert.Equal(t, int64(0), *st.TotalUsed)
		require.NotNil(t, st.TotalLimit)
		assert.Equal(t, usage.GeneralDailyLimit, *st.TotalLimit)
		assert.False(t, st.IsPremium)
	})

	t.Run("fifth workspace action of the day is blocked", func(t *testing.T) {
		t.Parallel()
		tracker, _ := newTracker(t)

		for i := 0; i < 4; i++ {
			st, err := tracker.Consume(ctx, testUser, usage.CategoryWorkspace)
			require.NoError(t, err)
			require.True(t, st.CanUse, "action %d should be allowed", i+1)
		}

		st, err := tracker.Consume(ctx, testUser, usage.CategoryWorkspace)
		require.NoError(t, err)
		assert.False(t, st.CanUse)
		assert.Equal(t, usage.ReasonWorkspaceLimitReached, st.Reason)
		assert.Equal(t, int64(4), st.Used)
		assert.Zero(t, st.Remaining)
	})

	t.Run("workspace action draws from the general pool too", func(t *testing.T) {
		t.Parallel()
		tracker, store := newTracker(t)

		_, err := tracker.Consume(ctx, testUser, usage.CategoryWorkspace)
		require.NoError(t, err)

		rec, err := store.Get(ctx, testUser)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rec.WorkspaceUsage)
		assert.Equal(t, int64(1), rec.Usage)
	})

	t.Run("exhausted general pool blocks workspace actions", func(t *testing.T) {
		t.Parallel()
		tracker, store := newTracker(t)
		_, err := store.GetOrCreate(ctx, testUser)
		require.NoError(t, err)

		today := time.Now().UTC().Format(time.DateOnly)
		require.NoError(t, store.Update(ctx, testUser, entitlement.Patch{Set: map[string]any{
			entitlement.FieldUsage:                   usage.GeneralDailyLimit,
			entitlement.FieldUsageLastReset:          today,
			entitlement.FieldWorkspaceUsageLastReset: today,
		}}))

		st, err := tracker.Check(ctx, testUser, usage.CategoryWorkspace)
		require.NoError(t, err)
		assert.False(t, st.CanUse)
		assert.Equal(t, usage.ReasonTotalLimitReached, st.Reason)
		assert.Equal(t, int64(0), st.Used, "the workspace sub-limit itself is untouched")
	})
}

func TestTracker_DailyReset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("counters reset on the first check of a new day", func(t *testing.T) {
		t.Parallel()
		tracker, store := newTracker(t)
		rec := entitlement.NewRecord(testUser)
		rec.Usage = 15
		rec.UsageLastReset = "2024-01-01"
		store.Seed(rec)

		tracker.SetClock(func() time.Time {
			return time.Date(2024, 1, 2, 0, 0, 1, 0, time.UTC)
		})

		st, err := tracker.Check(ctx, testUser, usage.CategoryGeneral)
		require.NoError(t, err)
		assert.True(t, st.CanUse)
		assert.Equal(t, int64(0), st.Used)
		assert.Equal(t, usage.GeneralDailyLimit, st.Remaining)

		got, err := store.Get(ctx, testUser)
		require.NoError(t, err)
		assert.Zero(t, got.Usage)
		assert.Equal(t, "2024-01-02", got.UsageLastReset)
	})

	t.Run("counters hold within the same day", func(t *testing.T) {
		t.Parallel()
		tracker, store := newTracker(t)
		rec := entitlement.NewRecord(testUser)
		rec.Usage = 3
		rec.UsageLastReset = "2024-01-01"
		store.Seed(rec)

		tracker.SetClock(func() time.Time {
			return time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)
		})

		st, err := tracker.Check(ctx, testUser, usage.CategoryGeneral)
		require.NoError(t, err)
		assert.Equal(t, int64(3), st.Used)
	})

	t.Run("each category resets independently", func(t *testing.T) {
		t.Parallel()
		tracker, store := newTracker(t)
		rec := entitlement.NewRecord(testUser)
		rec.ShareUsage = 1
		rec.ShareUsageLastReset = "2024-01-01"
		rec.ImageAnalysisUsage = 1
		rec.ImageAnalysisUsageLastReset = "2024-01-02"
		store.Seed(rec)

		tracker.SetClock(func() time.Time {
			return time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
		})

		st, err := tracker.Check(ctx, testUser, usage.CategoryShare)
		require.NoError(t, err)
		assert.True(t, st.CanUse, "stale share counter resets")

		st, err = tracker.Check(ctx, testUser, usage.CategoryImage)
		require.NoError(t, err)
		assert.False(t, st.CanUse, "image counter already reset today stays")
		assert.Equal(t, usage.ReasonImageLimitReached, st.Reason)
	})
}

func TestTracker_SingleActionCategories(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	cases := []struct {
		name   string
		cat    usage.Category
		reason string
	}{
		{"share", usage.CategoryShare, usage.ReasonShareLimitReached},
		{"image analysis", usage.CategoryImage, usage.ReasonImageLimitReached},
	}
	for _, tc := range cases {
		t.Run(tc.name+" allows one action per day", func(t *testing.T) {
			t.Parallel()
			tracker, _ := newTracker(t)

			st, err := tracker.Consume(ctx, testUser, tc.cat)
			require.NoError(t, err)
			assert.True(t, st.CanUse)

			st, err = tracker.Consume(ctx, testUser, tc.cat)
			require.NoError(t, err)
			assert.False(t, st.CanUse)
			assert.Equal(t, tc.reason, st.Reason)
			assert.Equal(t, int64(1), st.Used)
			assert.Equal(t, 100, st.Percentage)
		})
	}
}

func TestTracker_Premium(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("premium users bypass every limit", func(t *testing.T) {
		t.Parallel()
		tracker, store := newTracker(t)
		rec := entitlement.NewRecord(testUser)
		rec.IsPremium = true
		rec.Usage = 500
		rec.UsageLastReset = time.Now().UTC().Format(time.DateOnly)
		store.Seed(rec)

		st, err := tracker.Consume(ctx, testUser, usage.CategoryGeneral)
		require.NoError(t, err)
		assert.True(t, st.CanUse)
		assert.True(t, st.IsPremium)
		assert.Equal(t, usage.Unlimited, st.Limit)
		assert.Equal(t, usage.Unlimited, st.Remaining)
		assert.Equal(t, -1, st.Percentage)

		// Activity is still counted.
		got, err := store.Get(ctx, testUser)
		require.NoError(t, err)
		assert.Equal(t, int64(501), got.Usage)
	})

	t.Run("a lapsed grant is downgraded before the check", func(t *testing.T) {
		t.Parallel()
		tracker, store := newTracker(t)
		expiry := time.Now().UTC().Add(-time.Hour)
		rec := entitlement.NewRecord(testUser)
		rec.IsPremium = true
		rec.PremiumExpiry = &expiry
		rec.Usage = 15
		rec.UsageLastReset = time.Now().UTC().Format(time.DateOnly)
		store.Seed(rec)

		st, err := tracker.Check(ctx, testUser, usage.CategoryGeneral)
		require.NoError(t, err)
		assert.False(t, st.CanUse, "free limits apply once the grant lapses")
		assert.False(t, st.IsPremium)

		got, err := store.Get(ctx, testUser)
		require.NoError(t, err)
		assert.False(t, got.IsPremium, "the downgrade is persisted")
	})
}

func TestTracker_UnknownCategory(t *testing.T) {
	t.Parallel()

	tracker, _ := newTracker(t)
	_, err := tracker.Check(context.Background(), testUser, usage.Category("bulk_export"))
	assert.Error(t, err)
}
