package region

// Region is the request-scoped result of resolving free text to a forecast region.
//
// When NeedsDisambiguation is set, ForecastRegionID is empty and ClarifyingQuestion
// holds the follow-up question for the user.
type Region struct {
	RawText             string    `json:"rawText"`
	Canonical           string    `json:"canonical,omitempty"`
	ForecastRegionID    string    `json:"forecastRegionId,omitempty"`
	NeedsDisambiguation bool      `json:"needsDisambiguation"`
	ClarifyingQuestion  string    `json:"clarifyingQuestion,omitempty"`
	Unsupported         bool      `json:"unsupported,omitempty"`
	Message             string    `json:"message,omitempty"`
	Grid                *GridCell `json:"grid,omitempty"`
}

// Resolved reports whether the region maps to a forecast region id.
func (r Region) Resolved() bool {
	return r.ForecastRegionID != "" && !r.NeedsDisambiguation
}

// IsEmpty reports whether no place was given at all.
func (r Region) IsEmpty() bool {
	return r.RawText == "" && r.Canonical == ""
}

// GridCell is a cell of the provider's 5km forecast grid.
type GridCell struct {
	X int `json:"nx"`
	Y int `json:"ny"`
}

// Location is a known representative point for a forecast region.
type Location struct {
	Name      string   `json:"name"`
	Canonical string   `json:"canonical"`
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Grid      GridCell `json:"grid"`
}

// Placement is the outcome of locating raw coordinates.
type Placement struct {
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Swapped  bool     `json:"swapped"`
	Nearest  Location `json:"nearest"`
	Grid     GridCell `json:"grid"`
	Fallback bool     `json:"gridFallback"`
}
