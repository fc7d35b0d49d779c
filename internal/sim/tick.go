package sim

import (
	"context"
	"time"

	"vanet-sim/internal/detect"
	"vanet-sim/internal/logging"
	"vanet-sim/internal/motion"
	"vanet-sim/internal/traffic"
)

// Params bundles everything a tick needs besides entities and randomness.
type Params struct {
	Detect detect.Params
	Motion motion.Model
}

// DefaultParams returns the default detector thresholds and motion model.
func DefaultParams() Params {
	return Params{Detect: detect.DefaultParams(), Motion: motion.DefaultModel()}
}

// Tick advances every vehicle then every vessel by dtSeconds and runs the
// detectors over the updated positions. Events are ordered collision,
// congestion, hazard, maritime. The input slices are not modified.
func Tick(vehicles, vessels []traffic.Entity, zones []traffic.HazardZone, dtSeconds float64, p Params, rng traffic.RandSource) ([]traffic.Entity, []traffic.Entity, []traffic.Event) {
	nextVehicles := make([]traffic.Entity, len(vehicles))
	for i, v := range vehicles {
		nextVehicles[i] = p.Motion.Step(v, dtSeconds, rng)
	}
	nextVessels := make([]traffic.Entity, len(vessels))
	for i, v := range vessels {
		nextVessels[i] = p.Motion.Step(v, dtSeconds, rng)
	}

	var events []traffic.Event
	events = append(events, detect.CollisionRisk(nextVehicles, nextVessels, p.Detect)...)
	events = append(events, detect.Congestion(nextVehicles, p.Detect)...)
	events = append(events, detect.HazardZones(nextVehicles, zones)...)
	events = append(events, detect.Maritime(nextVessels, p.Detect, rng)...)
	return nextVehicles, nextVessels, events
}

// Run steps the simulation on every tick interval until ctx is done. Step
// errors are logged and the loop continues. Running reports true while the
// loop is active.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting simulator", "tick_interval", s.tickInterval, "cluster_id", s.clusterID)
	s.running.Store(true)
	defer s.running.Store(false)
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.Step(ctx); err != nil {
				log.Error("simulation step failed", "err", err)
			}
		case <-ctx.Done():
			log.Info("stopping simulator")
			return
		}
	}
}
