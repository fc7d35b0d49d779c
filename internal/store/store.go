// Package store persists entities, hazard zones and events for the
// simulator. The tick core only sees plain records through Store.
package store

import (
	"context"
	"fmt"
	"time"

	"vanet-sim/internal/traffic"
)

// Store is the persistence contract the simulator needs.
type Store interface {
	// LoadEntities returns entities of kind in creation order.
	LoadEntities(ctx context.Context, kind traffic.Kind) ([]traffic.Entity, error)
	// SaveEntities upserts entities by id.
	SaveEntities(ctx context.Context, kind traffic.Kind, entities []traffic.Entity) error
	LoadHazardZones(ctx context.Context) ([]traffic.HazardZone, error)
	// SaveHazardZones inserts zones, assigning ids to zones without one.
	SaveHazardZones(ctx context.Context, zones []traffic.HazardZone) error
	// AppendEvents stores events. A zero Timestamp is set to the insertion time.
	AppendEvents(ctx context.Context, events []traffic.Event) error
	// RecentEvents returns events with Timestamp strictly after since, oldest first.
	RecentEvents(ctx context.Context, since time.Time) ([]traffic.Event, error)
	Close() error
}

// Open returns a store for driver: "memory", "sqlite" or "postgres".
// For sqlite an empty dsn opens an in-memory database.
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite", "postgres":
		return OpenGorm(driver, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func checkKind(kind traffic.Kind, entities []traffic.Entity) error {
	for _, e := range entities {
		if e.Kind != kind {
			return fmt.Errorf("entity %s has kind %q, want %q", e.ID, e.Kind, kind)
		}
	}
	return nil
}
