package recommendation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/codify/internal/domain/forecast"
	"github.com/yanqian/codify/internal/domain/outfit"
	"github.com/yanqian/codify/pkg/util"
)

func (s *service) resolveWeather(ctx context.Context, r *run) stage {
	if r.target.IsZero() {
		r.target = s.today()
	}

	var place forecast.Place
	switch {
	case r.req.Latitude != nil && r.req.Longitude != nil && s.resolver != nil:
		place = s.placeForCoordinates(*r.req.Latitude, *r.req.Longitude)
	case s.resolver != nil:
		reg := s.resolver.ResolveWithAnswer(r.req.Region, r.req.Answer)
		if reg.NeedsDisambiguation {
			r.resp.Status = StatusNeedsClarification
			r.resp.ClarifyingQuestion = reg.ClarifyingQuestion
			return stageDone
		}
		if reg.Unsupported {
			r.resp.WeatherUnavailableReason = reg.Message
			return stageLoadWardrobe
		}
		place = forecast.PlaceForRegion(reg)
	}

	if s.forecaster == nil {
		return stageLoadWardrobe
	}
	daily := s.forecaster.Daily(ctx, place, r.target)
	if !daily.Available() {
		r.resp.WeatherUnavailableReason = daily.Reason
		s.logger.Info("recommendation proceeding without weather", "place", place.Label, "date", forecast.DateID(r.target), "reason", daily.Reason)
		return stageLoadWardrobe
	}
	r.weather = summarizeWeather(place.Label, daily)
	r.resp.Weather = r.weather
	return stageLoadWardrobe
}

func (s *service) today() time.Time {
	if s.forecaster != nil {
		return s.forecaster.Today()
	}
	return util.DateOnly(util.NowUTC(), s.timezone)
}

func (s *service) placeForCoordinates(lat, lon float64) forecast.Place {
	placement := s.resolver.Locate(lat, lon)
	if placement.Swapped {
		s.logger.Warn("latitude and longitude look transposed, swapping",
			"lat", lat, "lon", lon, "normalizedLat", placement.Lat, "normalizedLon", placement.Lon)
	}
	return forecast.PlaceForPlacement(placement, s.resolver.RegionFor(placement.Nearest))
}

func summarizeWeather(label string, daily forecast.Daily) *WeatherSummary {
	rec := daily.Record
	summary := &WeatherSummary{
		Region:        firstNonEmpty(label, rec.Region),
		Date:          rec.DateID,
		MinTemp:       rec.MinTemp,
		MaxTemp:       rec.MaxTemp,
		Precipitation: forecast.PrecipitationLabel(rec.PrecipitationSeverity),
		Source:        string(daily.Outcome.Source),
	}
	if t := rec.MaxTemp; t != nil {
		summary.Seasons = outfit.SeasonsForTemperature(*t)
	} else if t := rec.MinTemp; t != nil {
		summary.Seasons = outfit.SeasonsForTemperature(*t)
	}
	summary.Text = fmt.Sprintf("%s 기온 %s°C ~ %s°C (%s 날씨)",
		summary.Region, formatTemp(rec.MinTemp), formatTemp(rec.MaxTemp), feelLabel(summary.Seasons))
	return summary
}

func feelLabel(seasons []string) string {
	if len(seasons) == 1 {
		switch seasons[0] {
		case outfit.SeasonSummer:
			return "여름"
		case outfit.SeasonWinter:
			return "겨울"
		}
	}
	return "선선한"
}

func formatTemp(v *float64) string {
	if v == nil {
		return "?"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
