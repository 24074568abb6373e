package forecast

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Provider categories.
const (
	CategoryMinTemp       = "TMN"
	CategoryMaxTemp       = "TMX"
	CategoryHourlyTemp    = "TMP"
	CategoryPrecipitation = "PTY"
)

// DailySummary is the per-day reduction of provider items.
type DailySummary struct {
	MinTemp               *float64
	MaxTemp               *float64
	PrecipitationSeverity int
}

// ParseDaily reduces the items for target's date to min/max temperature and
// the worst precipitation code. Explicit TMN/TMX win over hourly TMP values.
func ParseDaily(items []Item, target time.Time) (DailySummary, bool) {
	day := DateID(target)
	var (
		out                  DailySummary
		hourlyMin, hourlyMax *float64
		found                bool
	)
	for _, item := range items {
		if item.Date != "" && item.Date != day {
			continue
		}
		switch strings.ToUpper(item.Category) {
		case CategoryMinTemp:
			if v, ok := parseFloat(item.Value); ok {
				out.MinTemp = lower(out.MinTemp, v)
				found = true
			}
		case CategoryMaxTemp:
			if v, ok := parseFloat(item.Value); ok {
				out.MaxTemp = higher(out.MaxTemp, v)
				found = true
			}
		case CategoryHourlyTemp:
			if v, ok := parseFloat(item.Value); ok {
				hourlyMin = lower(hourlyMin, v)
				hourlyMax = higher(hourlyMax, v)
				found = true
			}
		case CategoryPrecipitation:
			if v, ok := parseFloat(item.Value); ok {
				if code := int(v); code > out.PrecipitationSeverity {
					out.PrecipitationSeverity = code
				}
				found = true
			}
		}
	}
	if out.MinTemp == nil {
		out.MinTemp = hourlyMin
	}
	if out.MaxTemp == nil {
		out.MaxTemp = hourlyMax
	}
	return out, found
}

func parseFloat(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	// The provider encodes missing values as large sentinels such as -999 or 900.
	if v <= -900 || v >= 900 {
		return 0, false
	}
	return v, true
}

func lower(cur *float64, v float64) *float64 {
	if cur == nil || v < *cur {
		return &v
	}
	return cur
}

func higher(cur *float64, v float64) *float64 {
	if cur == nil || v > *cur {
		return &v
	}
	return cur
}

// PrecipitationLabel describes a precipitation severity code.
func PrecipitationLabel(code int) string {
	switch code {
	case 0:
		return "없음"
	case 1:
		return "비"
	case 2:
		return "비/눈"
	case 3:
		return "눈"
	case 4:
		return "소나기"
	default:
		return "강수"
	}
}
