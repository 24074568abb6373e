package forecast

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RefreshStatus summarizes a bulk run.
type RefreshStatus string

const (
	RefreshSuccess        RefreshStatus = "success"
	RefreshPartialSuccess RefreshStatus = "partial_success"
	RefreshFailed         RefreshStatus = "failed"
)

// RefreshSummary is the reportable result of RefreshAll.
type RefreshSummary struct {
	RunID         string        `json:"runId"`
	Status        RefreshStatus `json:"status"`
	Date          string        `json:"date"`
	Total         int           `json:"total"`
	SuccessCount  int           `json:"successCount"`
	FailedRegions []string      `json:"failedRegions"`
	Attempts      int           `json:"attempts"`
}

// RefreshAll fetches every target for today concurrently, retries the failed
// subset between rounds with the configured backoff, then persists all
// successes in a single upsert. Failed targets are reported, not returned as
// an error; the error is reserved for the final persistence step.
func (g *Gateway) RefreshAll(ctx context.Context, targets []Target, today time.Time) (RefreshSummary, error) {
	summary := RefreshSummary{
		RunID: uuid.NewString(),
		Date:  DateID(today.In(g.selector.Location())),
		Total: len(targets),
	}
	logger := g.logger.With("run_id", summary.RunID)

	window, ok := g.selector.SelectWindow(today)
	if !ok {
		summary.FailedRegions = labels(targets)
		summary.Status = statusFor(summary)
		logger.Warn("forecast refresh skipped, no window", "date", summary.Date)
		return summary, nil
	}

	var (
		mu      sync.Mutex
		fetched = make(map[string]DailyWeatherRecord, len(targets))
	)
	pending := targets
	for attempt := 1; attempt <= g.cfg.Refresh.MaxAttempts && len(pending) > 0; attempt++ {
		if attempt > 1 {
			delay := g.backoff(attempt - 2)
			logger.Info("forecast refresh retrying", "attempt", attempt, "pending", len(pending), "backoff", delay.String())
			if err := g.sleep(ctx, delay); err != nil {
				logger.Warn("forecast refresh interrupted", "error", err)
				break
			}
		}
		summary.Attempts = attempt

		var (
			failedMu sync.Mutex
			failed   []Target
		)
		eg, egCtx := errgroup.WithContext(ctx)
		if g.cfg.Refresh.Concurrency > 0 {
			eg.SetLimit(g.cfg.Refresh.Concurrency)
		}
		for _, target := range pending {
			eg.Go(func() error {
				rec, err := g.fetch(egCtx, target, window)
				if err != nil {
					logger.Warn("forecast refresh target failed", "target", target.Label, "key", target.Key.String(), "attempt", attempt, "error", err)
					failedMu.Lock()
					failed = append(failed, target)
					failedMu.Unlock()
					return nil
				}
				mu.Lock()
				fetched[rec.Key] = rec
				mu.Unlock()
				return nil
			})
		}
		_ = eg.Wait()
		pending = failed
	}

	records := make([]DailyWeatherRecord, 0, len(fetched))
	for _, rec := range fetched {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })

	summary.SuccessCount = len(records)
	summary.FailedRegions = labels(pending)
	summary.Status = statusFor(summary)

	if len(records) > 0 {
		if err := g.cache.UpsertAll(ctx, records); err != nil {
			summary.SuccessCount = 0
			summary.FailedRegions = labels(targets)
			summary.Status = RefreshFailed
			return summary, fmt.Errorf("persist forecast refresh: %w", err)
		}
	}
	logger.Info("forecast refresh finished", "status", summary.Status, "success", summary.SuccessCount, "total", summary.Total, "failed", summary.FailedRegions)
	return summary, nil
}

func (g *Gateway) backoff(i int) time.Duration {
	steps := g.cfg.Refresh.Backoff
	if len(steps) == 0 {
		return 0
	}
	if i >= len(steps) {
		i = len(steps) - 1
	}
	return steps[i]
}

func statusFor(s RefreshSummary) RefreshStatus {
	switch {
	case len(s.FailedRegions) == 0:
		return RefreshSuccess
	case s.SuccessCount == 0:
		return RefreshFailed
	default:
		return RefreshPartialSuccess
	}
}

func labels(targets []Target) []string {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		name := t.Label
		if name == "" {
			name = t.Key.String()
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
