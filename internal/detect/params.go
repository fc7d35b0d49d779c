// Package detect implements the per-tick safety detectors. Detectors never
// fail and return no events on empty input.
package detect

// Default thresholds.
const (
	DefaultProximityM              = 20.0
	DefaultSpeedDiffKmh            = 30.0
	DefaultCongestionDensity       = 50.0
	DefaultAreaSizeKm              = 5.0
	DefaultRoughWeatherSpeedKmh    = 5.0
	DefaultOpenWaterDistanceM      = 1000.0
	DefaultDistressCallProbability = 0.0001
)

// Point is a fixed reference coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// Params are the detector thresholds and reference points.
type Params struct {
	ProximityM   float64
	SpeedDiffKmh float64
	// Index selects the collision pair scan.
	Index CollisionIndex

	CongestionDensity float64 // vehicles per km²
	AreaSizeKm        float64 // side of the square simulation area
	AreaCenter        Point

	RoughWeatherSpeedKmh    float64
	OpenWaterDistanceM      float64
	Shore                   Point
	DistressCallProbability float64
}

// DefaultParams returns the thresholds of the Hanamkonda deployment.
func DefaultParams() Params {
	return Params{
		ProximityM:              DefaultProximityM,
		SpeedDiffKmh:            DefaultSpeedDiffKmh,
		Index:                   IndexBruteForce,
		CongestionDensity:       DefaultCongestionDensity,
		AreaSizeKm:              DefaultAreaSizeKm,
		AreaCenter:              Point{Lat: (17.95 + 18.00) / 2, Lon: (79.58 + 79.62) / 2},
		RoughWeatherSpeedKmh:    DefaultRoughWeatherSpeedKmh,
		OpenWaterDistanceM:      DefaultOpenWaterDistanceM,
		Shore:                   Point{Lat: 17.80, Lon: 79.70},
		DistressCallProbability: DefaultDistressCallProbability,
	}
}
