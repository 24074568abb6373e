package outfit

import "strings"

// Slot is where a garment is worn.
type Slot string

const (
	SlotTop    Slot = "TOP"
	SlotBottom Slot = "BOTTOM"
	SlotOther  Slot = "OTHER"
)

// ParseSlot maps loose category labels onto a Slot.
func ParseSlot(value string) Slot {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "TOP", "TOPS", "OUTER", "상의":
		return SlotTop
	case "BOTTOM", "BOTTOMS", "PANTS", "SKIRT", "하의":
		return SlotBottom
	default:
		return SlotOther
	}
}

// Season tags used on garments.
const (
	SeasonSpring = "SPRING"
	SeasonSummer = "SUMMER"
	SeasonFall   = "FALL"
	SeasonWinter = "WINTER"
)

// Item is a read-only view of a wardrobe garment.
type Item struct {
	ID           string   `json:"id"`
	Slot         Slot     `json:"slot"`
	Category     string   `json:"category,omitempty"`
	Name         string   `json:"name,omitempty"`
	ColorPrimary string   `json:"colorPrimary,omitempty"`
	StyleTags    []string `json:"styleTags,omitempty"`
	// Formality is in [0,1]; nil means unknown.
	Formality  *float64 `json:"formality,omitempty"`
	SeasonTags []string `json:"seasonTags,omitempty"`
}

const defaultFormality = 0.5

// FormalityOrDefault returns the garment formality, 0.5 when unknown.
func (i Item) FormalityOrDefault() float64 {
	if i.Formality == nil {
		return defaultFormality
	}
	return *i.Formality
}

// Candidate is a scored (top, bottom) pair.
type Candidate struct {
	Top     Item     `json:"top"`
	Bottom  Item     `json:"bottom"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}
