package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/codify/internal/domain/region"
)

func refreshTargets() []Target {
	return []Target{
		{Key: GridKey(region.GridCell{X: 60, Y: 127}), Label: "서울"},
		{Key: GridKey(region.GridCell{X: 98, Y: 76}), Label: "부산"},
		{Key: GridKey(region.GridCell{X: 53, Y: 38}), Label: "제주"},
	}
}

func TestRefreshAllRetriesFailedSubset(t *testing.T) {
	now := kst(2025, 5, 10, 3, 0)
	perKey := map[string]int{}
	provider := &stubProvider{}
	provider.fn = func(q Query, _ int) ([]Item, error) {
		perKey[q.Key.String()]++
		switch q.Key.String() {
		case "grid:98:76":
			if perKey[q.Key.String()] < 3 {
				return nil, errors.New("timeout")
			}
		case "grid:53:38":
			return nil, ErrNoData
		}
		return dayItems("20250510", "10", "20", "0"), nil
	}
	cache := newStubCache()
	gw := newTestGateway(shortConfig, now, provider, cache)
	gw.cfg.Refresh.Concurrency = 1 // serialize so perKey needs no lock
	var slept []time.Duration
	gw.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	summary, err := gw.RefreshAll(context.Background(), refreshTargets(), now)
	require.NoError(t, err)
	require.Equal(t, RefreshPartialSuccess, summary.Status)
	require.Equal(t, 3, summary.Total)
	require.Equal(t, 2, summary.SuccessCount)
	require.Equal(t, []string{"제주"}, summary.FailedRegions)
	require.Equal(t, 3, summary.Attempts)
	require.NotEmpty(t, summary.RunID)
	require.Equal(t, []time.Duration{time.Second, 3 * time.Second}, slept)
	require.Equal(t, 3, perKey["grid:53:38"])
	require.Equal(t, 1, perKey["grid:60:127"])

	require.Len(t, cache.upserts, 1)
	require.Len(t, cache.upserts[0], 2)
	require.Equal(t, 2, cache.size())
}

func TestRefreshAllSuccessWithoutRetry(t *testing.T) {
	now := kst(2025, 5, 10, 3, 0)
	provider := &stubProvider{items: dayItems("20250510", "10", "20", "0")}
	cache := newStubCache()
	gw := newTestGateway(shortConfig, now, provider, cache)
	gw.sleep = func(context.Context, time.Duration) error {
		t.Fatal("no backoff expected")
		return nil
	}

	summary, err := gw.RefreshAll(context.Background(), refreshTargets(), now)
	require.NoError(t, err)
	require.Equal(t, RefreshSuccess, summary.Status)
	require.Equal(t, 3, summary.SuccessCount)
	require.Empty(t, summary.FailedRegions)
	require.Equal(t, 1, summary.Attempts)
	require.Equal(t, 3, provider.callCount())
}

func TestRefreshAllEverythingFails(t *testing.T) {
	now := kst(2025, 5, 10, 3, 0)
	provider := &stubProvider{err: errors.New("503")}
	cache := newStubCache()
	gw := newTestGateway(shortConfig, now, provider, cache)
	gw.sleep = func(context.Context, time.Duration) error { return nil }

	summary, err := gw.RefreshAll(context.Background(), refreshTargets(), now)
	require.NoError(t, err)
	require.Equal(t, RefreshFailed, summary.Status)
	require.Equal(t, 0, summary.SuccessCount)
	require.Len(t, summary.FailedRegions, 3)
	require.Equal(t, 9, provider.callCount())
	require.Empty(t, cache.upserts)
}

func TestRefreshAllPersistFailure(t *testing.T) {
	now := kst(2025, 5, 10, 3, 0)
	cache := newStubCache()
	cache.upsertErr = errors.New("tx aborted")
	gw := newTestGateway(shortConfig, now, &stubProvider{items: dayItems("20250510", "1", "2", "0")}, cache)

	summary, err := gw.RefreshAll(context.Background(), refreshTargets(), now)
	require.Error(t, err)
	require.Equal(t, RefreshFailed, summary.Status)
	require.Zero(t, cache.size())
}

func TestRefreshAllStopsWhenContextCancelled(t *testing.T) {
	now := kst(2025, 5, 10, 3, 0)
	provider := &stubProvider{err: errors.New("boom")}
	gw := newTestGateway(shortConfig, now, provider, newStubCache())
	gw.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	summary, err := gw.RefreshAll(context.Background(), refreshTargets(), now)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Attempts)
	require.Equal(t, 3, provider.callCount())
	require.Equal(t, RefreshFailed, summary.Status)
}
