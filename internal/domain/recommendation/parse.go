package recommendation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var errNoPicks = errors.New("no usable recommendations in llm output")

type pickWire struct {
	TopID            flexString `json:"top_id"`
	BottomID         flexString `json:"bottom_id"`
	Score            flexFloat  `json:"score"`
	Reasoning        string     `json:"reasoning"`
	StyleDescription string     `json:"style_description"`
}

// flexString accepts JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

// flexFloat accepts numbers and numeric strings; anything else is unset.
type flexFloat struct {
	Value float64
	Set   bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	text := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	f.Value, f.Set = v, true
	return nil
}

// parsePicks extracts recommendation picks from a model reply. It tolerates
// code fences, leading prose, a single object and wrapper objects.
func parsePicks(raw string) ([]CachedPick, error) {
	sanitized := strings.TrimSpace(raw)
	sanitized = strings.TrimPrefix(sanitized, "```json")
	sanitized = strings.TrimPrefix(sanitized, "```")
	sanitized = strings.TrimSuffix(sanitized, "```")
	sanitized = strings.TrimSpace(sanitized)

	start := strings.IndexAny(sanitized, "[{")
	if start < 0 {
		return nil, errNoPicks
	}
	var payload json.RawMessage
	if err := json.NewDecoder(strings.NewReader(sanitized[start:])).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode llm output: %w", err)
	}

	wires, err := decodePickWires(payload)
	if err != nil {
		return nil, err
	}
	picks := make([]CachedPick, 0, len(wires))
	for _, w := range wires {
		if w.TopID == "" || w.BottomID == "" {
			continue
		}
		picks = append(picks, CachedPick{
			TopID:            string(w.TopID),
			BottomID:         string(w.BottomID),
			Score:            normalizeScore(w.Score),
			Reasoning:        strings.TrimSpace(w.Reasoning),
			StyleDescription: strings.TrimSpace(w.StyleDescription),
		})
	}
	if len(picks) == 0 {
		return nil, errNoPicks
	}
	return picks, nil
}

func decodePickWires(payload json.RawMessage) ([]pickWire, error) {
	if len(payload) > 0 && payload[0] == '[' {
		var wires []pickWire
		if err := json.Unmarshal(payload, &wires); err != nil {
			return nil, fmt.Errorf("decode llm array: %w", err)
		}
		return wires, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(payload, &wrapper); err != nil {
		return nil, fmt.Errorf("decode llm object: %w", err)
	}
	for _, key := range []string{"recommendations", "outfits", "results"} {
		if inner, ok := wrapper[key]; ok {
			return decodePickWires(inner)
		}
	}
	var single pickWire
	if err := json.Unmarshal(payload, &single); err != nil {
		return nil, fmt.Errorf("decode llm object: %w", err)
	}
	return []pickWire{single}, nil
}

func normalizeScore(f flexFloat) float64 {
	if !f.Set {
		return 0.5
	}
	v := f.Value
	if v > 1 && v <= 100 {
		v /= 100
	}
	return round2(math.Max(0, math.Min(1, v)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
