package store

import (
	"context"
	"sync"
	"time"

	"vanet-sim/internal/traffic"
)

// Memory is an in-process Store.
type Memory struct {
	mu       sync.Mutex
	entities map[traffic.Kind][]traffic.Entity
	zones    []traffic.HazardZone
	nextZone int64
	events   []traffic.Event
	now      func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entities: make(map[traffic.Kind][]traffic.Entity),
		nextZone: 1,
		now:      time.Now,
	}
}

func (m *Memory) LoadEntities(_ context.Context, kind traffic.Kind) ([]traffic.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src := m.entities[kind]
	out := make([]traffic.Entity, len(src))
	copy(out, src)
	return out, nil
}

func (m *Memory) SaveEntities(_ context.Context, kind traffic.Kind, entities []traffic.Entity) error {
	if err := checkKind(kind, entities); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.entities[kind]
	idx := make(map[string]int, len(cur))
	for i, e := range cur {
		idx[e.ID] = i
	}
	for _, e := range entities {
		if i, ok := idx[e.ID]; ok {
			cur[i] = e
			continue
		}
		idx[e.ID] = len(cur)
		cur = append(cur, e)
	}
	m.entities[kind] = cur
	return nil
}

func (m *Memory) LoadHazardZones(context.Context) ([]traffic.HazardZone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]traffic.HazardZone, len(m.zones))
	copy(out, m.zones)
	return out, nil
}

func (m *Memory) SaveHazardZones(_ context.Context, zones []traffic.HazardZone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, z := range zones {
		if z.ID == 0 {
			z.ID = m.nextZone
		}
		if z.ID >= m.nextZone {
			m.nextZone = z.ID + 1
		}
		m.zones = append(m.zones, z)
	}
	return nil
}

func (m *Memory) AppendEvents(_ context.Context, events []traffic.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts := m.now().UTC()
	for _, ev := range events {
		if ev.Timestamp.IsZero() {
			ev.Timestamp = ts
		}
		if ev.InvolvedEntities != nil {
			ev.InvolvedEntities = append([]string(nil), ev.InvolvedEntities...)
		}
		m.events = append(m.events, ev)
	}
	return nil
}

func (m *Memory) RecentEvents(_ context.Context, since time.Time) ([]traffic.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []traffic.Event
	for _, ev := range m.events {
		if ev.Timestamp.After(since) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
