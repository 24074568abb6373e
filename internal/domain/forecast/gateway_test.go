package forecast

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/codify/internal/domain/region"
)

func TestGetOrFetchSecondCallHitsCache(t *testing.T) {
	now := kst(2025, 5, 10, 10, 0)
	provider := &stubProvider{items: dayItems("20250510", "11", "23", "1")}
	cache := newStubCache()
	gw := newTestGateway(shortConfig, now, provider, cache)
	target := Target{Key: GridKey(region.GridCell{X: 60, Y: 127}), Label: "서울"}

	rec, outcome := gw.GetOrFetch(context.Background(), target, now)
	require.NotNil(t, rec)
	require.Equal(t, SourceProvider, outcome.Source)
	require.Equal(t, "20250510", rec.DateID)
	require.Equal(t, "grid:60:127", rec.Key)
	require.Equal(t, 11.0, *rec.MinTemp)
	require.Equal(t, 23.0, *rec.MaxTemp)
	require.Equal(t, 1, rec.PrecipitationSeverity)
	require.Equal(t, "서울", rec.Region)

	again, outcome := gw.GetOrFetch(context.Background(), target, now)
	require.Equal(t, SourceCache, outcome.Source)
	require.Equal(t, rec.MaxTemp, again.MaxTemp)
	require.Equal(t, 1, provider.callCount())
	require.Equal(t, "0200", provider.lastQuery.Window.BaseTime())
}

func TestGetOrFetchChecksAliasesFirst(t *testing.T) {
	now := kst(2025, 5, 10, 10, 0)
	provider := &stubProvider{items: dayItems("20250510", "1", "2", "0")}
	cache := newStubCache()
	warm := DailyWeatherRecord{DateID: "20250510", Key: "grid:60:127", Region: "서울"}
	require.NoError(t, cache.Insert(context.Background(), warm))
	gw := newTestGateway(shortConfig, now, provider, cache)

	rec, outcome := gw.GetOrFetch(context.Background(), Target{
		Key:     GridKey(region.GridCell{X: 61, Y: 126}),
		Aliases: []CacheKey{GridKey(region.GridCell{X: 60, Y: 127})},
	}, now)
	require.Equal(t, SourceCache, outcome.Source)
	require.Equal(t, "grid:60:127", rec.Key)
	require.Zero(t, provider.callCount())
}

func TestGetOrFetchProviderFailures(t *testing.T) {
	now := kst(2025, 5, 10, 10, 0)
	cases := map[string]*stubProvider{
		"transport": {err: errors.New("dial tcp: connection refused")},
		"no data":   {err: ErrNoData},
		"empty":     {items: nil},
		"wrong day": {items: dayItems("20250511", "1", "2", "0")},
	}
	for name, provider := range cases {
		t.Run(name, func(t *testing.T) {
			cache := newStubCache()
			gw := newTestGateway(shortConfig, now, provider, cache)
			rec, outcome := gw.GetOrFetch(context.Background(), Target{Key: RegionKey("x")}, now)
			require.Nil(t, rec)
			require.Equal(t, SourceUnavailable, outcome.Source)
			require.NotEmpty(t, outcome.Detail)
			require.Equal(t, 1, provider.callCount())
			require.Zero(t, cache.size())
		})
	}
}

func TestGetOrFetchOutsideHorizonSkipsProvider(t *testing.T) {
	now := kst(2025, 5, 10, 10, 0)
	provider := &stubProvider{}
	gw := newTestGateway(midConfig, now, provider, newStubCache())

	rec, outcome := gw.GetOrFetch(context.Background(), Target{Key: RegionKey("11B10101")}, now.AddDate(0, 0, 12))
	require.Nil(t, rec)
	require.Equal(t, SourceUnavailable, outcome.Source)
	require.Contains(t, outcome.Detail, "초과")
	require.Zero(t, provider.callCount())
}

func TestGetOrFetchConcurrentFirstWriters(t *testing.T) {
	now := kst(2025, 5, 10, 10, 0)
	provider := &stubProvider{items: dayItems("20250510", "5", "15", "0"), barrier: 2}
	cache := newStubCache()
	gw := newTestGateway(shortConfig, now, provider, cache)
	target := Target{Key: GridKey(region.GridCell{X: 98, Y: 76})}

	var wg sync.WaitGroup
	results := make([]*DailyWeatherRecord, 2)
	outcomes := make([]Outcome, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], outcomes[i] = gw.GetOrFetch(context.Background(), target, now)
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, cache.size())
	require.Equal(t, 2, provider.callCount())
	require.ElementsMatch(t, []Source{SourceProvider, SourceCacheAfterConflict}, []Source{outcomes[0].Source, outcomes[1].Source})
	for _, rec := range results {
		require.NotNil(t, rec)
		require.Equal(t, "grid:98:76", rec.Key)
		require.Equal(t, 5.0, *rec.MinTemp)
		require.Equal(t, 15.0, *rec.MaxTemp)
	}
}

func TestGetOrFetchInsertFailureStillReturnsData(t *testing.T) {
	now := kst(2025, 5, 10, 10, 0)
	cache := newStubCache()
	cache.insertErr = errors.New("disk full")
	gw := newTestGateway(shortConfig, now, &stubProvider{items: dayItems("20250510", "1", "9", "0")}, cache)

	rec, outcome := gw.GetOrFetch(context.Background(), Target{Key: RegionKey("r")}, now)
	require.NotNil(t, rec)
	require.Equal(t, SourceProvider, outcome.Source)
	require.Equal(t, "not persisted", outcome.Detail)
}

func newTestGateway(cfg WindowConfig, now time.Time, provider Provider, cache Cache) *Gateway {
	gw := NewGateway(GatewayConfig{
		Name:           cfg.Name,
		RequestTimeout: time.Second,
		Refresh:        RefreshConfig{MaxAttempts: 3, Backoff: []time.Duration{time.Second, 3 * time.Second, 5 * time.Second}},
	}, provider, newTestSelector(cfg, now), cache, newTestLogger())
	gw.now = func() time.Time { return now }
	return gw
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dayItems(date, minTemp, maxTemp, pty string) []Item {
	return []Item{
		{Category: CategoryMinTemp, Date: date, Time: "0600", Value: minTemp},
		{Category: CategoryMaxTemp, Date: date, Time: "1500", Value: maxTemp},
		{Category: CategoryPrecipitation, Date: date, Time: "1200", Value: pty},
	}
}

type stubProvider struct {
	mu        sync.Mutex
	items     []Item
	err       error
	calls     int
	lastQuery Query
	// barrier blocks every call until that many calls have arrived.
	barrier int
	release chan struct{}
	// fn overrides items/err when set.
	fn func(q Query, call int) ([]Item, error)
}

func (p *stubProvider) Fetch(ctx context.Context, q Query) ([]Item, error) {
	p.mu.Lock()
	p.calls++
	call := p.calls
	p.lastQuery = q
	if p.barrier > 0 && p.release == nil {
		p.release = make(chan struct{})
	}
	if p.barrier > 0 && call == p.barrier {
		close(p.release)
	}
	release := p.release
	p.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.fn != nil {
		return p.fn(q, call)
	}
	return p.items, p.err
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type stubCache struct {
	mu        sync.Mutex
	records   map[string]DailyWeatherRecord
	insertErr error
	upsertErr error
	upserts   [][]DailyWeatherRecord
}

func newStubCache() *stubCache {
	return &stubCache{records: make(map[string]DailyWeatherRecord)}
}

func (c *stubCache) Get(_ context.Context, dateID, key string) (DailyWeatherRecord, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[dateID+"|"+key]
	return rec, ok, nil
}

func (c *stubCache) Insert(_ context.Context, rec DailyWeatherRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.insertErr != nil {
		return c.insertErr
	}
	id := rec.DateID + "|" + rec.Key
	if _, ok := c.records[id]; ok {
		return ErrDuplicateRecord
	}
	c.records[id] = rec
	return nil
}

func (c *stubCache) UpsertAll(_ context.Context, recs []DailyWeatherRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upserts = append(c.upserts, recs)
	if c.upsertErr != nil {
		return c.upsertErr
	}
	for _, rec := range recs {
		c.records[rec.DateID+"|"+rec.Key] = rec
	}
	return nil
}

func (c *stubCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}
