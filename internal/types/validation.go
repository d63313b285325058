package types

import "fmt"

// Coordinate bounds.
const (
	MinLat = -90.0
	MaxLat = 90.0
	MinLon = -180.0
	MaxLon = 180.0
)

// ValidateCoordinates checks latitude and longitude against the WGS84 ranges.
func ValidateCoordinates(lat, lon float64) error {
	if lat < MinLat || lat > MaxLat {
		return NewAppError(ErrCodeConfigInvalidLocation,
			fmt.Sprintf("latitude %.6f outside valid range [%.0f, %.0f]", lat, MinLat, MaxLat), nil)
	}
	if lon < MinLon || lon > MaxLon {
		return NewAppError(ErrCodeConfigInvalidLocation,
			fmt.Sprintf("longitude %.6f outside valid range [%.0f, %.0f]", lon, MinLon, MaxLon), nil)
	}
	return nil
}
