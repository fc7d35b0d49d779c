package detect

import (
	"fmt"

	"vanet-sim/internal/geo"
	"vanet-sim/internal/traffic"
)

// HazardZones emits one damaged_road event per vehicle strictly inside a
// zone. The event is placed at the zone, not the vehicle.
func HazardZones(vehicles []traffic.Entity, zones []traffic.HazardZone) []traffic.Event {
	var events []traffic.Event
	for _, v := range vehicles {
		for _, z := range zones {
			if geo.Distance(v.Lat, v.Lon, z.Lat, z.Lon) >= z.RadiusM {
				continue
			}
			events = append(events, traffic.Event{
				Type:        traffic.EventDamagedRoad,
				Description: fmt.Sprintf("Vehicle %s approaching/in %s", v.ID, z.Name),
				Lat:         z.Lat,
				Lon:         z.Lon,
				EntityID:    v.ID,
			})
		}
	}
	return events
}
