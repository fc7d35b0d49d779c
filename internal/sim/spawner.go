package sim

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"vanet-sim/internal/config"
	"vanet-sim/internal/geo"
	"vanet-sim/internal/logging"
	"vanet-sim/internal/store"
	"vanet-sim/internal/traffic"
)

// Populate creates the initial vehicles inside the region bounds and vessels
// inside the maritime bounds with uniform speed and heading.
func Populate(cfg *config.SimulationConfig, rng traffic.RandSource) ([]traffic.Entity, []traffic.Entity) {
	vehicles := spawn(traffic.KindVehicle, cfg.Vehicles, cfg.Region.Bounds, rng)
	vessels := spawn(traffic.KindVessel, cfg.Vessels, cfg.Maritime.Bounds, rng)
	return vehicles, vessels
}

func spawn(kind traffic.Kind, p config.Population, b config.Bounds, rng traffic.RandSource) []traffic.Entity {
	out := make([]traffic.Entity, p.Count)
	for i := range out {
		out[i] = traffic.Entity{
			ID:      generateEntityID(kind, i),
			Kind:    kind,
			Lat:     traffic.Uniform(rng, b.LatMin, b.LatMax),
			Lon:     traffic.Uniform(rng, b.LonMin, b.LonMax),
			Speed:   traffic.Uniform(rng, p.SpeedMinKmh, p.SpeedMaxKmh),
			Heading: traffic.Uniform(rng, 0, 360),
		}
	}
	return out
}

func generateEntityID(kind traffic.Kind, index int) string {
	// Include the index along with a UUID to guarantee uniqueness
	return fmt.Sprintf("%s-%d-%s", kind, index, uuid.New().String())
}

// Bootstrap seeds an empty store with populated entities and the configured
// hazard zones. A store that already holds vehicles is left untouched and
// Bootstrap reports false.
func Bootstrap(ctx context.Context, st store.Store, cfg *config.SimulationConfig, rng traffic.RandSource) (bool, error) {
	log := logging.FromContext(ctx)
	existing, err := st.LoadEntities(ctx, traffic.KindVehicle)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		log.Info("store already populated", "vehicles", len(existing))
		return false, nil
	}

	vehicles, vessels := Populate(cfg, rng)
	if err := st.SaveEntities(ctx, traffic.KindVehicle, vehicles); err != nil {
		return false, err
	}
	if err := st.SaveEntities(ctx, traffic.KindVessel, vessels); err != nil {
		return false, err
	}
	zones := make([]traffic.HazardZone, 0, len(cfg.HazardZones))
	for _, z := range cfg.HazardZones {
		zones = append(zones, traffic.HazardZone{Name: z.Name, Lat: z.Lat, Lon: z.Lon, RadiusM: z.RadiusM})
	}
	if err := st.SaveHazardZones(ctx, zones); err != nil {
		return false, err
	}
	log.Info("populated store", "vehicles", len(vehicles), "vessels", len(vessels), "hazard_zones", len(zones))
	return true, nil
}

// AddHazardZone stores a reported hazard zone. It is picked up on the next step.
func (s *Simulator) AddHazardZone(ctx context.Context, z traffic.HazardZone) error {
	if z.RadiusM < 0 {
		return fmt.Errorf("hazard zone %q: negative radius", z.Name)
	}
	if !geo.ValidCoord(z.Lat, z.Lon) {
		return fmt.Errorf("hazard zone %q: coordinate %v,%v out of range", z.Name, z.Lat, z.Lon)
	}
	return s.store.SaveHazardZones(ctx, []traffic.HazardZone{z})
}
