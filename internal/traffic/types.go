// Entity, hazard zone and event records shared across the simulator
package traffic

import (
	"os"
	"time"
)

// Kind discriminates the two entity populations.
type Kind string

const (
	KindVehicle Kind = "vehicle"
	KindVessel  Kind = "vessel"
)

// Entity is a moving vehicle or vessel.
type Entity struct {
	ID      string  `json:"id"`
	Kind    Kind    `json:"kind"`
	Lat     float64 `json:"latitude"`
	Lon     float64 `json:"longitude"`
	Speed   float64 `json:"speed"`   // km/h
	Heading float64 `json:"heading"` // degrees clockwise from north
}

// HazardZone is a fixed circular road hazard.
type HazardZone struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Lat     float64 `json:"latitude"`
	Lon     float64 `json:"longitude"`
	RadiusM float64 `json:"radius"`
}

// EventType names a detected safety condition.
type EventType string

const (
	EventAccidentRisk EventType = "accident_risk"
	EventCongestion   EventType = "congestion"
	EventDamagedRoad  EventType = "damaged_road"
	EventRoughWeather EventType = "rough_weather"
	EventDistressCall EventType = "distress_call"
)

// EventTypes lists every event type in detector order.
var EventTypes = []EventType{
	EventAccidentRisk,
	EventCongestion,
	EventDamagedRoad,
	EventRoughWeather,
	EventDistressCall,
}

// Event is one detected condition. EntityID is empty for aggregate events
// and InvolvedEntities is only set for accident_risk.
type Event struct {
	Type             EventType `json:"type"`
	Description      string    `json:"description"`
	Lat              float64   `json:"latitude"`
	Lon              float64   `json:"longitude"`
	EntityID         string    `json:"entity_id,omitempty"`
	InvolvedEntities []string  `json:"involved_entities,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// RandSource is the random stream consumed by the motion model and the
// maritime detector. *rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// Uniform draws from [lo, hi).
func Uniform(rng RandSource, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// PositionRow is the per-tick record written for every entity.
type PositionRow struct {
	ClusterID string    `json:"cluster_id"` // TAG
	EntityID  string    `json:"entity_id"`  // TAG
	Kind      Kind      `json:"kind"`       // TAG
	Lat       float64   `json:"lat"`        // FIELD
	Lon       float64   `json:"lon"`        // FIELD
	Speed     float64   `json:"speed_kmh"`  // FIELD
	Heading   float64   `json:"heading_deg"`
	Timestamp time.Time `json:"ts"` // TIME INDEX
}

// NewPositionRow builds the row for e at ts.
func NewPositionRow(clusterID string, e Entity, ts time.Time) PositionRow {
	return PositionRow{
		ClusterID: clusterID,
		EntityID:  e.ID,
		Kind:      e.Kind,
		Lat:       e.Lat,
		Lon:       e.Lon,
		Speed:     e.Speed,
		Heading:   e.Heading,
		Timestamp: ts,
	}
}

// PositionTableName holds the table name used when writing positions to
// GreptimeDB. Override via GREPTIMEDB_POSITION_TABLE.
var PositionTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_POSITION_TABLE"); env != "" {
		return env
	}
	return "entity_positions"
}()

func (PositionRow) TableName() string {
	return PositionTableName
}

// EventTableName holds the table name used when writing events to
// GreptimeDB. Override via GREPTIMEDB_EVENT_TABLE.
var EventTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_EVENT_TABLE"); env != "" {
		return env
	}
	return "safety_events"
}()
