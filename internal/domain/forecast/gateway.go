package forecast

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// GatewayConfig tunes provider calls and bulk refreshes.
type GatewayConfig struct {
	Name           string
	RequestTimeout time.Duration
	Refresh        RefreshConfig
}

// RefreshConfig bounds the bulk warm-up retry loop.
type RefreshConfig struct {
	MaxAttempts int
	Backoff     []time.Duration
	Concurrency int
}

// Gateway fetches forecasts through a cache for one provider.
type Gateway struct {
	cfg      GatewayConfig
	provider Provider
	selector *WindowSelector
	cache    Cache
	logger   *slog.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewGateway wires a provider, its window selector and the shared cache.
func NewGateway(cfg GatewayConfig, provider Provider, selector *WindowSelector, cache Cache, logger *slog.Logger) *Gateway {
	if cfg.Refresh.MaxAttempts <= 0 {
		cfg.Refresh.MaxAttempts = 3
	}
	return &Gateway{
		cfg:      cfg,
		provider: provider,
		selector: selector,
		cache:    cache,
		logger:   logger.With("component", "forecast.gateway", "gateway", cfg.Name),
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Selector exposes the gateway's window selector.
func (g *Gateway) Selector() *WindowSelector { return g.selector }

// GetOrFetch returns the cached record for target on date, fetching and
// storing it on a miss. Provider failures are not retried and come back as
// SourceUnavailable.
func (g *Gateway) GetOrFetch(ctx context.Context, target Target, date time.Time) (*DailyWeatherRecord, Outcome) {
	dateID := DateID(date.In(g.selector.Location()))
	keys := append([]CacheKey{target.Key}, target.Aliases...)
	for _, key := range keys {
		rec, ok, err := g.cache.Get(ctx, dateID, key.String())
		if err != nil {
			g.logger.Warn("weather cache read failed", "key", key.String(), "date", dateID, "error", err)
			continue
		}
		if ok {
			return &rec, Outcome{Source: SourceCache, Detail: key.String()}
		}
	}

	window, ok := g.selector.SelectWindow(date)
	if !ok {
		check := g.selector.InSupportedHorizon(date)
		return nil, Outcome{Source: SourceUnavailable, Detail: check.Reason}
	}

	rec, err := g.fetch(ctx, target, window)
	if err != nil {
		g.logger.Warn("forecast fetch failed", "key", target.Key.String(), "date", dateID, "error", err)
		return nil, Outcome{Source: SourceUnavailable, Detail: err.Error()}
	}

	if err := g.cache.Insert(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicateRecord) {
			existing, found, getErr := g.cache.Get(ctx, rec.DateID, rec.Key)
			if getErr == nil && found {
				return &existing, Outcome{Source: SourceCacheAfterConflict}
			}
			err = errors.Join(err, getErr)
		}
		g.logger.Error("weather cache write failed", "key", rec.Key, "date", rec.DateID, "error", err)
		return &rec, Outcome{Source: SourceProvider, Detail: "not persisted"}
	}
	g.logger.Info("forecast fetched", "key", rec.Key, "date", rec.DateID, "issue", window.IssueStamp())
	return &rec, Outcome{Source: SourceProvider}
}

func (g *Gateway) fetch(ctx context.Context, target Target, window Window) (DailyWeatherRecord, error) {
	if g.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.RequestTimeout)
		defer cancel()
	}
	items, err := g.provider.Fetch(ctx, Query{Key: target.Key, Window: window})
	if err != nil {
		return DailyWeatherRecord{}, err
	}
	summary, ok := ParseDaily(items, window.TargetDate)
	if !ok {
		return DailyWeatherRecord{}, ErrNoData
	}
	return DailyWeatherRecord{
		DateID:                DateID(window.TargetDate),
		Key:                   target.Key.String(),
		Region:                target.Label,
		MinTemp:               summary.MinTemp,
		MaxTemp:               summary.MaxTemp,
		PrecipitationSeverity: summary.PrecipitationSeverity,
		IssuedAt:              window.IssueTime,
		FetchedAt:             g.now().UTC(),
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
