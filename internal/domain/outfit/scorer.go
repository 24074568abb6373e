package outfit

import (
	"math"
	"strings"
)

const (
	weightColor     = 0.4
	weightStyle     = 0.3
	weightFormality = 0.2
	weightSeason    = 0.1

	thresholdColor     = 0.8
	thresholdStyle     = 0.6
	thresholdFormality = 0.7
	thresholdSeason    = 0.8
)

// Reasons attached to candidates.
const (
	ReasonColor     = "색상 조화"
	ReasonStyle     = "스타일 일치"
	ReasonFormality = "정장스러움 조화"
	ReasonSeason    = "계절 적합"
	ReasonBalanced  = "균형잡힌 조합"
)

var hues = map[string]float64{
	"red":     0,
	"brown":   25,
	"orange":  30,
	"beige":   45,
	"cream":   50,
	"yellow":  60,
	"khaki":   90,
	"green":   120,
	"skyblue": 180,
	"blue":    210,
	"navy":    240,
	"purple":  270,
	"pink":    300,
}

var achromatic = map[string]struct{}{
	"black": {},
	"white": {},
	"gray":  {},
	"grey":  {},
}

// Score combines the four sub-scores into a compatibility score in [0,1]
// together with the reasons that crossed their thresholds.
func Score(top, bottom Item) (float64, []string) {
	color := ColorHarmony(top.ColorPrimary, bottom.ColorPrimary)
	style := StyleMatch(top.StyleTags, bottom.StyleTags)
	formality := FormalityMatch(top.FormalityOrDefault(), bottom.FormalityOrDefault())
	season := SeasonMatch(top.SeasonTags, bottom.SeasonTags)

	total := color*weightColor + style*weightStyle + formality*weightFormality + season*weightSeason
	total = math.Max(0, math.Min(1, total))

	reasons := make([]string, 0, 4)
	if color >= thresholdColor {
		reasons = append(reasons, ReasonColor)
	}
	if style >= thresholdStyle {
		reasons = append(reasons, ReasonStyle)
	}
	if formality >= thresholdFormality {
		reasons = append(reasons, ReasonFormality)
	}
	if season >= thresholdSeason {
		reasons = append(reasons, ReasonSeason)
	}
	if len(reasons) == 0 {
		reasons = append(reasons, ReasonBalanced)
	}
	return total, reasons
}

// ColorHarmony scores two primary colours on the colour wheel.
func ColorHarmony(a, b string) float64 {
	a, b = normalizeColor(a), normalizeColor(b)
	if isAchromatic(a) || isAchromatic(b) {
		return 0.8
	}
	h1, ok1 := hues[a]
	h2, ok2 := hues[b]
	if !ok1 || !ok2 {
		return 0.5
	}
	if a == b {
		return 0.9
	}
	diff := math.Abs(h1 - h2)
	if diff > 180 {
		diff = 360 - diff
	}
	switch {
	case diff >= 170 && diff <= 190:
		return 0.95
	case diff <= 60:
		return 0.85
	case diff >= 110 && diff <= 130:
		return 0.75
	case diff <= 90:
		return 0.6
	default:
		return 0.4
	}
}

// StyleMatch is the Jaccard overlap of the style tags rescaled into [0.3,1].
func StyleMatch(a, b []string) float64 {
	setA, setB := toSet(a), toSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0.3
	}
	inter := 0
	for tag := range setA {
		if _, ok := setB[tag]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	jaccard := float64(inter) / float64(union)
	return math.Min(1, 0.3+jaccard*0.7)
}

// FormalityMatch falls linearly to zero once formality differs by 0.5.
func FormalityMatch(a, b float64) float64 {
	return math.Max(0, 1-2*math.Abs(a-b))
}

// SeasonMatch is 1 when the season tags intersect, 0.3 otherwise and 0.5 when
// either garment has no season tags.
func SeasonMatch(a, b []string) float64 {
	setA, setB := toSet(a), toSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0.5
	}
	for tag := range setA {
		if _, ok := setB[tag]; ok {
			return 1.0
		}
	}
	return 0.3
}

func normalizeColor(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

func isAchromatic(c string) bool {
	_, ok := achromatic[c]
	return ok
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		out[v] = struct{}{}
	}
	return out
}
