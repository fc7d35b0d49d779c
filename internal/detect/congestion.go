package detect

import (
	"fmt"

	"vanet-sim/internal/traffic"
)

// Density returns vehicles per km² over the square area. A non-positive
// area yields 0.
func Density(count int, areaSizeKm float64) float64 {
	area := areaSizeKm * areaSizeKm
	if areaSizeKm <= 0 || area <= 0 {
		return 0
	}
	return float64(count) / area
}

// Congestion emits at most one global congestion event located at the area
// center when density is strictly above CongestionDensity.
func Congestion(vehicles []traffic.Entity, p Params) []traffic.Event {
	if len(vehicles) == 0 {
		return nil
	}
	density := Density(len(vehicles), p.AreaSizeKm)
	if density <= p.CongestionDensity {
		return nil
	}
	return []traffic.Event{{
		Type:        traffic.EventCongestion,
		Description: fmt.Sprintf("High traffic congestion detected. Density: %.2f vehicles/sqkm", density),
		Lat:         p.AreaCenter.Lat,
		Lon:         p.AreaCenter.Lon,
	}}
}
