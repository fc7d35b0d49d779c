package scenario

import (
	"vanet-sim/internal/config"
	"vanet-sim/internal/detect"
)

// BuiltIn returns the predefined region presets.
func BuiltIn() map[string]Scenario {
	def := config.Default()
	return map[string]Scenario{
		"hanamkonda": {
			Name:        "hanamkonda",
			Description: "Hanamkonda road grid with a stretch of coast to the south-east.",
			Region:      &def.Region,
			Maritime:    &def.Maritime,
			HazardZones: []config.Zone{
				{Name: "Pothole Cluster", Lat: 17.9720, Lon: 79.5960, RadiusM: 150},
				{Name: "Waterlogged Underpass", Lat: 17.9850, Lon: 79.6080, RadiusM: 100},
			},
		},
		"harbor-grid": {
			Name:        "harbor-grid",
			Description: "Dense port road grid next to a busy anchorage.",
			Region: &config.Region{
				Name:   "harbor-grid",
				Bounds: config.Bounds{LatMin: 16.93, LatMax: 16.96, LonMin: 82.21, LonMax: 82.24},
				SizeKm: 3,
			},
			Maritime: &config.Maritime{
				Bounds:             config.Bounds{LatMin: 16.90, LatMax: 16.95, LonMin: 82.27, LonMax: 82.32},
				Shore:              config.Point{Lat: 16.94, Lon: 82.25},
				OpenWaterDistanceM: 2000,
			},
			Vehicles:       &config.Population{Count: 200, SpeedMinKmh: 10, SpeedMaxKmh: 40},
			Vessels:        &config.Population{Count: 20, SpeedMinKmh: 2, SpeedMaxKmh: 15},
			CollisionIndex: detect.IndexGrid,
			HazardZones: []config.Zone{
				{Name: "Container Spill", Lat: 16.945, Lon: 82.225, RadiusM: 80},
			},
		},
	}
}
