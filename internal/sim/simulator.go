// Simulator orchestrating vehicles, vessels and safety event ticks
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"vanet-sim/internal/config"
	"vanet-sim/internal/logging"
	"vanet-sim/internal/store"
	"vanet-sim/internal/traffic"
)

// SummaryWindow is the default look-back for event summaries.
const SummaryWindow = 24 * time.Hour

// PositionWriter receives one row per entity per tick.
type PositionWriter interface {
	Write(traffic.PositionRow) error
}

// Optional: position writers may support batch mode
type batchWriter interface {
	WriteBatch([]traffic.PositionRow) error
}

// EventWriter receives detected safety events.
type EventWriter interface {
	WriteEvent(traffic.Event) error
}

// Optional: event writers may support batch mode
type batchEventWriter interface {
	WriteEvents([]traffic.Event) error
}

// Snapshot is the entity and event state after a tick.
type Snapshot struct {
	Tick        int64                `json:"tick"`
	Vehicles    []traffic.Entity     `json:"vehicles"`
	Vessels     []traffic.Entity     `json:"vessels"`
	Events      []traffic.Event      `json:"events"`
	HazardZones []traffic.HazardZone `json:"hazard_zones"`
}

// Simulator loads state from a store, runs Tick and persists the result.
type Simulator struct {
	clusterID    string
	cfg          *config.SimulationConfig
	store        store.Store
	writer       PositionWriter
	eventWriter  EventWriter
	stateWriter  StateWriter
	params       Params
	stepSeconds  float64
	tickInterval time.Duration
	rand         traffic.RandSource
	now          func() time.Time

	running atomic.Bool

	mu   sync.Mutex
	tick int64
	last Snapshot
}

// NewSimulator wires a simulator over st. writer and eventWriter may be nil.
// The random source is seeded from cfg.Seed, or from the clock when zero.
func NewSimulator(clusterID string, cfg *config.SimulationConfig, st store.Store, writer PositionWriter, eventWriter EventWriter, tickInterval time.Duration) *Simulator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if tickInterval <= 0 {
		tickInterval = cfg.UpdateInterval
	}
	return &Simulator{
		clusterID:    clusterID,
		cfg:          cfg,
		store:        st,
		writer:       writer,
		eventWriter:  eventWriter,
		params:       Params{Detect: cfg.DetectParams(), Motion: cfg.MotionModel()},
		stepSeconds:  cfg.Motion.StepSeconds,
		tickInterval: tickInterval,
		rand:         rand.New(rand.NewSource(seed)),
		now:          time.Now,
	}
}

// SetStateWriter attaches a writer for per-tick summary rows.
func (s *Simulator) SetStateWriter(w StateWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateWriter = w
}

// Step runs one tick against the store and returns the new state with the
// events of this tick.
func (s *Simulator) Step(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vehicles, err := s.store.LoadEntities(ctx, traffic.KindVehicle)
	if err != nil {
		return Snapshot{}, err
	}
	vessels, err := s.store.LoadEntities(ctx, traffic.KindVessel)
	if err != nil {
		return Snapshot{}, err
	}
	zones, err := s.store.LoadHazardZones(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	vehicles, vessels, events := Tick(vehicles, vessels, zones, s.stepSeconds, s.params, s.rand)

	if err := s.store.SaveEntities(ctx, traffic.KindVehicle, vehicles); err != nil {
		return Snapshot{}, err
	}
	if err := s.store.SaveEntities(ctx, traffic.KindVessel, vessels); err != nil {
		return Snapshot{}, err
	}
	ts := s.now().UTC()
	for i := range events {
		events[i].Timestamp = ts
	}
	if err := s.store.AppendEvents(ctx, events); err != nil {
		return Snapshot{}, err
	}

	s.tick++
	s.last = Snapshot{Tick: s.tick, Vehicles: vehicles, Vessels: vessels, Events: events, HazardZones: zones}
	s.emit(ctx, ts)
	return s.copyLast(), nil
}

func (s *Simulator) emit(ctx context.Context, ts time.Time) {
	log := logging.FromContext(ctx)
	if s.writer != nil {
		rows := make([]traffic.PositionRow, 0, len(s.last.Vehicles)+len(s.last.Vessels))
		for _, e := range s.last.Vehicles {
			rows = append(rows, traffic.NewPositionRow(s.clusterID, e, ts))
		}
		for _, e := range s.last.Vessels {
			rows = append(rows, traffic.NewPositionRow(s.clusterID, e, ts))
		}
		if bw, ok := s.writer.(batchWriter); ok {
			if err := bw.WriteBatch(rows); err != nil {
				log.Error("position batch write failed", "err", err)
			}
		} else {
			for _, row := range rows {
				if err := s.writer.Write(row); err != nil {
					log.Error("position write failed", "entity_id", row.EntityID, "err", err)
				}
			}
		}
	}

	if len(s.last.Events) > 0 && s.eventWriter != nil {
		if bw, ok := s.eventWriter.(batchEventWriter); ok {
			if err := bw.WriteEvents(s.last.Events); err != nil {
				log.Error("event batch write failed", "err", err)
			}
		} else {
			for _, ev := range s.last.Events {
				if err := s.eventWriter.WriteEvent(ev); err != nil {
					log.Error("event write failed", "type", ev.Type, "err", err)
				}
			}
		}
	}

	if s.stateWriter != nil {
		row := traffic.TickStateRow{
			ClusterID: s.clusterID,
			Tick:      s.tick,
			Vehicles:  len(s.last.Vehicles),
			Vessels:   len(s.last.Vessels),
			Events:    len(s.last.Events),
			ByType:    traffic.CountByType(s.last.Events),
			Timestamp: ts,
		}
		if err := s.stateWriter.WriteState(row); err != nil {
			log.Error("state write failed", "tick", s.tick, "err", err)
		}
	}
	log.Debug("tick complete", "tick", s.tick, "events", len(s.last.Events))
}

// Snapshot returns the state after the last step, or the stored state when
// no step has run yet.
func (s *Simulator) Snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tick > 0 {
		return s.copyLast(), nil
	}
	vehicles, err := s.store.LoadEntities(ctx, traffic.KindVehicle)
	if err != nil {
		return Snapshot{}, err
	}
	vessels, err := s.store.LoadEntities(ctx, traffic.KindVessel)
	if err != nil {
		return Snapshot{}, err
	}
	zones, err := s.store.LoadHazardZones(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Vehicles: vehicles, Vessels: vessels, HazardZones: zones}, nil
}

func (s *Simulator) copyLast() Snapshot {
	out := Snapshot{Tick: s.last.Tick}
	out.Vehicles = append([]traffic.Entity(nil), s.last.Vehicles...)
	out.Vessels = append([]traffic.Entity(nil), s.last.Vessels...)
	out.Events = append([]traffic.Event(nil), s.last.Events...)
	out.HazardZones = append([]traffic.HazardZone(nil), s.last.HazardZones...)
	return out
}

// RecentEvents returns stored events newer than now minus window.
func (s *Simulator) RecentEvents(ctx context.Context, window time.Duration) ([]traffic.Event, error) {
	events, err := s.store.RecentEvents(ctx, s.now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return events, nil
}

// Summary counts stored events per type over window.
func (s *Simulator) Summary(ctx context.Context, window time.Duration) ([]traffic.TypeCount, error) {
	events, err := s.RecentEvents(ctx, window)
	if err != nil {
		return nil, err
	}
	return traffic.Summarize(events), nil
}

// HazardZones returns the stored hazard zones.
func (s *Simulator) HazardZones(ctx context.Context) ([]traffic.HazardZone, error) {
	return s.store.LoadHazardZones(ctx)
}

// GetConfig returns the simulation configuration.
func (s *Simulator) GetConfig() *config.SimulationConfig {
	return s.cfg
}

// Running reports whether Run is driving the tick loop.
func (s *Simulator) Running() bool {
	return s.running.Load()
}

// Ticks returns the number of completed steps.
func (s *Simulator) Ticks() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}
