package outfit

import (
	"sort"
	"strings"
)

// SeasonsForTemperature maps a daily maximum temperature to the seasons whose
// garments suit it.
func SeasonsForTemperature(maxTemp float64) []string {
	switch {
	case maxTemp >= 24:
		return []string{SeasonSummer}
	case maxTemp <= 12:
		return []string{SeasonWinter}
	default:
		return []string{SeasonSpring, SeasonFall}
	}
}

// FilterBySeason keeps items tagged with one of the seasons. Untagged items
// always pass; if nothing is left the input is returned unchanged.
func FilterBySeason(items []Item, seasons []string) []Item {
	if len(seasons) == 0 {
		return items
	}
	want := toSet(seasons)
	out := make([]Item, 0, len(items))
	for _, item := range items {
		tags := toSet(item.SeasonTags)
		if len(tags) == 0 {
			out = append(out, item)
			continue
		}
		for tag := range tags {
			if _, ok := want[tag]; ok {
				out = append(out, item)
				break
			}
		}
	}
	if len(out) == 0 {
		return items
	}
	return out
}

// Split partitions items into tops and bottoms, dropping other slots.
func Split(items []Item) (tops, bottoms []Item) {
	for _, item := range items {
		switch item.Slot {
		case SlotTop:
			tops = append(tops, item)
		case SlotBottom:
			bottoms = append(bottoms, item)
		}
	}
	return tops, bottoms
}

// Rank scores the cross join of tops and bottoms and returns the best limit
// pairs, highest score first. limit <= 0 returns every pair.
func Rank(tops, bottoms []Item, limit int) []Candidate {
	out := make([]Candidate, 0, len(tops)*len(bottoms))
	for _, top := range tops {
		for _, bottom := range bottoms {
			score, reasons := Score(top, bottom)
			out = append(out, Candidate{Top: top, Bottom: bottom, Score: score, Reasons: reasons})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// StyleDescription labels a pair by its categories.
func StyleDescription(top, bottom Item) string {
	return labelOr(top.Category, "Top") + " & " + labelOr(bottom.Category, "Bottom")
}

func labelOr(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
