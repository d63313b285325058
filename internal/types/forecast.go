package types

import "time"

// Coordinates is the fixed point the forecast is requested for.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Validate checks that the coordinates are within the valid WGS84 ranges.
func (c Coordinates) Validate() error {
	return ValidateCoordinates(c.Latitude, c.Longitude)
}

// ForecastEntry is one time slice of the provider's forecast.
// Only ConditionCode drives classification; the rest is kept for log output.
type ForecastEntry struct {
	Time          time.Time `json:"time"`
	ConditionCode int       `json:"condition_code"`
	Condition     string    `json:"condition,omitempty"`
	Description   string    `json:"description,omitempty"`
}

// ForecastWindow is the chronological sequence of entries returned for one
// fetch, bounded by the requested entry count.
type ForecastWindow struct {
	Location Coordinates     `json:"location"`
	Entries  []ForecastEntry `json:"entries"`
}

// Len returns the number of entries in the window.
func (w *ForecastWindow) Len() int {
	if w == nil {
		return 0
	}
	return len(w.Entries)
}

// ConditionCodes returns the condition code of every entry, in order.
func (w *ForecastWindow) ConditionCodes() []int {
	if w == nil {
		return nil
	}
	codes := make([]int, 0, len(w.Entries))
	for _, e := range w.Entries {
		codes = append(codes, e.ConditionCode)
	}
	return codes
}
