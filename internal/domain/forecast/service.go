package forecast

import (
	"context"
	"time"

	"github.com/yanqian/codify/internal/domain/region"
	"github.com/yanqian/codify/pkg/util"
)

// Place is what a caller knows about where the weather is wanted.
type Place struct {
	Label    string
	RegionID string
	Grid     *region.GridCell
	Aliases  []CacheKey
}

// Daily is the result of a daily weather lookup. Record is nil when the
// forecast could not be obtained; Reason then explains why to the user.
type Daily struct {
	Record  *DailyWeatherRecord `json:"record,omitempty"`
	Outcome Outcome             `json:"outcome"`
	Reason  string              `json:"reason,omitempty"`
	Range   string              `json:"range,omitempty"`
}

// Available reports whether a record was found.
func (d Daily) Available() bool { return d.Record != nil }

const (
	rangeShort = "short"
	rangeMid   = "mid"

	reasonNoPlace     = "지역 정보가 없어 날씨를 조회하지 않았습니다"
	reasonUnavailable = "날씨 정보를 아직 가져올 수 없습니다"
)

// Service routes daily lookups to the short-range grid gateway or the
// mid-range region gateway depending on the target date.
type Service struct {
	short *Gateway
	mid   *Gateway
}

// NewService combines the short- and mid-range gateways.
func NewService(short, mid *Gateway) *Service {
	return &Service{short: short, mid: mid}
}

// Short exposes the short-range gateway, used by the warm-up job.
func (s *Service) Short() *Gateway { return s.short }

// Today returns the current provider-local date.
func (s *Service) Today() time.Time {
	switch {
	case s.short != nil:
		return s.short.selector.Today()
	case s.mid != nil:
		return s.mid.selector.Today()
	default:
		return util.DateOnly(time.Now(), util.KST)
	}
}

// Daily looks up the forecast for place on target.
func (s *Service) Daily(ctx context.Context, place Place, target time.Time) Daily {
	var reason string
	if place.Grid != nil && s.short != nil {
		check := s.short.selector.InSupportedHorizon(target)
		if check.InRange {
			rec, outcome := s.short.GetOrFetch(ctx, Target{Key: GridKey(*place.Grid), Aliases: place.Aliases, Label: place.Label}, target)
			return finish(rec, outcome, rangeShort)
		}
		reason = check.Reason
	}
	if place.RegionID != "" && s.mid != nil {
		check := s.mid.selector.InSupportedHorizon(target)
		if !check.InRange {
			return Daily{Outcome: Outcome{Source: SourceUnavailable, Detail: check.Reason}, Reason: check.Reason, Range: rangeMid}
		}
		rec, outcome := s.mid.GetOrFetch(ctx, Target{Key: RegionKey(place.RegionID), Label: place.Label}, target)
		return finish(rec, outcome, rangeMid)
	}
	if reason == "" {
		reason = reasonNoPlace
		if s.short == nil && s.mid == nil {
			reason = reasonUnavailable
		}
	}
	return Daily{Outcome: Outcome{Source: SourceUnavailable, Detail: reason}, Reason: reason}
}

func finish(rec *DailyWeatherRecord, outcome Outcome, rng string) Daily {
	d := Daily{Record: rec, Outcome: outcome, Range: rng}
	if rec == nil {
		d.Reason = reasonUnavailable
	}
	return d
}

// GridTargets turns known locations into short-range refresh targets, one per
// distinct grid cell.
func GridTargets(locations []region.Location) []Target {
	seen := make(map[string]struct{}, len(locations))
	out := make([]Target, 0, len(locations))
	for _, loc := range locations {
		key := GridKey(loc.Grid)
		if _, ok := seen[key.String()]; ok {
			continue
		}
		seen[key.String()] = struct{}{}
		out = append(out, Target{Key: key, Label: loc.Name})
	}
	return out
}

// PlaceForRegion converts a resolved region into a lookup place.
func PlaceForRegion(reg region.Region) Place {
	label := reg.Canonical
	if label == "" {
		label = reg.RawText
	}
	return Place{Label: label, RegionID: reg.ForecastRegionID, Grid: reg.Grid}
}

// PlaceForPlacement converts located coordinates into a lookup place. The
// nearest known location's cell is kept as an alias so records warmed for it
// are reused.
func PlaceForPlacement(p region.Placement, reg region.Region) Place {
	label := p.Nearest.Name
	if label == "" {
		label = reg.Canonical
	}
	grid := p.Grid
	place := Place{Label: label, RegionID: reg.ForecastRegionID, Grid: &grid}
	if p.Nearest.Grid != grid && p.Nearest.Grid.InBounds() {
		place.Aliases = []CacheKey{GridKey(p.Nearest.Grid)}
	}
	return place
}
