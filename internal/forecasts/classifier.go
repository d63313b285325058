// Package forecasts decides whether a forecast window calls for an umbrella.
//
// The condition code space is the OpenWeatherMap convention: codes below
// PrecipitationThreshold are precipitation (2xx thunderstorm, 3xx drizzle,
// 5xx rain, 6xx snow); codes at or above it are atmosphere, clear sky and
// clouds. The threshold belongs to the provider, not to this package.
package forecasts

import (
	"time"

	"rainalert/internal/types"
)

// PrecipitationThreshold is the first non-precipitation condition code.
// Codes strictly below it are precipitation.
const PrecipitationThreshold = 700

// WindowSize is the number of forecast entries requested per poll. At the
// provider's 3-hour granularity it covers the next 12 hours.
const WindowSize = 4

// StepDuration is the provider's time granularity per entry.
const StepDuration = 3 * time.Hour

// IsPrecipitation reports whether a single condition code is precipitation.
func IsPrecipitation(code int) bool {
	return code < PrecipitationThreshold
}

// Classify reports whether any entry in the window is precipitation.
// It scans the whole window and never lets a later entry clear an earlier
// positive. An empty or nil window is false.
func Classify(window *types.ForecastWindow) bool {
	if window == nil {
		return false
	}
	willRain := false
	for _, entry := range window.Entries {
		if IsPrecipitation(entry.ConditionCode) {
			willRain = true
		}
	}
	return willRain
}

// FirstPrecipitation returns the earliest precipitation entry, for logging.
// ok is false when the window has none.
func FirstPrecipitation(window *types.ForecastWindow) (entry types.ForecastEntry, ok bool) {
	if window == nil {
		return types.ForecastEntry{}, false
	}
	for _, e := range window.Entries {
		if IsPrecipitation(e.ConditionCode) {
			return e, true
		}
	}
	return types.ForecastEntry{}, false
}
