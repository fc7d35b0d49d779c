package detect

import (
	"fmt"

	"vanet-sim/internal/geo"
	"vanet-sim/internal/traffic"
)

// Maritime runs the rough-weather and distress-call checks for each vessel.
// One random draw is consumed per vessel for the distress call.
func Maritime(vessels []traffic.Entity, p Params, rng traffic.RandSource) []traffic.Event {
	var events []traffic.Event
	for _, v := range vessels {
		if v.Speed < p.RoughWeatherSpeedKmh &&
			geo.Distance(v.Lat, v.Lon, p.Shore.Lat, p.Shore.Lon) > p.OpenWaterDistanceM {
			events = append(events, traffic.Event{
				Type:        traffic.EventRoughWeather,
				Description: fmt.Sprintf("Vessel %s potentially in rough weather (low speed).", v.ID),
				Lat:         v.Lat,
				Lon:         v.Lon,
				EntityID:    v.ID,
			})
		}
		if rng.Float64() < p.DistressCallProbability {
			events = append(events, traffic.Event{
				Type:        traffic.EventDistressCall,
				Description: fmt.Sprintf("Vessel %s sending distress call!", v.ID),
				Lat:         v.Lat,
				Lon:         v.Lon,
				EntityID:    v.ID,
			})
		}
	}
	return events
}
