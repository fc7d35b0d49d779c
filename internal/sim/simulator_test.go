package sim

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"vanet-sim/internal/config"
	"vanet-sim/internal/store"
	"vanet-sim/internal/traffic"
)

// MockWriter collects position rows for validation
type MockWriter struct {
	Rows []traffic.PositionRow
}

func (w *MockWriter) Write(row traffic.PositionRow) error {
	w.Rows = append(w.Rows, row)
	return nil
}

type MockEventWriter struct {
	Events []traffic.Event
}

func (w *MockEventWriter) WriteEvent(ev traffic.Event) error {
	w.Events = append(w.Events, ev)
	return nil
}

type MockStateWriter struct {
	Rows []traffic.TickStateRow
}

func (w *MockStateWriter) WriteState(row traffic.TickStateRow) error {
	w.Rows = append(w.Rows, row)
	return nil
}

type failingWriter struct{}

func (failingWriter) Write(traffic.PositionRow) error { return errors.New("disk full") }

func newTestSimulator(t *testing.T, st store.Store, w PositionWriter, ew EventWriter) (*Simulator, time.Time) {
	t.Helper()
	cfg := config.Default()
	cfg.Seed = 42
	sim := NewSimulator("cluster-test", cfg, st, w, ew, time.Second)
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	sim.now = func() time.Time { return fixed }
	return sim, fixed
}

func TestSimulator_StepPersistsAndWrites(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	vehicles := []traffic.Entity{
		vehicle("a", 17.97, 79.60, 10, 0),
		vehicle("b", 17.97, 79.60, 50, 0),
	}
	if err := st.SaveEntities(ctx, traffic.KindVehicle, vehicles); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveEntities(ctx, traffic.KindVessel, []traffic.Entity{vessel("s", 17.81, 79.71, 10, 90)}); err != nil {
		t.Fatal(err)
	}

	writer := &MockWriter{}
	events := &MockEventWriter{}
	states := &MockStateWriter{}
	sim, fixed := newTestSimulator(t, st, writer, events)
	sim.SetStateWriter(states)
	sim.rand = fixedSource(0.5)

	snap, err := sim.Step(ctx)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if snap.Tick != 1 || len(snap.Vehicles) != 2 || len(snap.Vessels) != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if len(writer.Rows) != 3 {
		t.Errorf("expected 3 position rows, got %d", len(writer.Rows))
	}
	for _, row := range writer.Rows {
		if row.EntityID == "" || row.ClusterID != "cluster-test" || !row.Timestamp.Equal(fixed) {
			t.Errorf("bad position row: %+v", row)
		}
	}
	if len(events.Events) != 1 || events.Events[0].Type != traffic.EventAccidentRisk {
		t.Fatalf("events = %+v", events.Events)
	}
	if !events.Events[0].Timestamp.Equal(fixed) {
		t.Errorf("event timestamp = %v", events.Events[0].Timestamp)
	}
	if len(states.Rows) != 1 || states.Rows[0].Events != 1 || states.Rows[0].ByType[traffic.EventAccidentRisk] != 1 {
		t.Errorf("state rows = %+v", states.Rows)
	}

	stored, err := st.LoadEntities(ctx, traffic.KindVehicle)
	if err != nil {
		t.Fatal(err)
	}
	if stored[1].Lat <= vehicles[1].Lat {
		t.Errorf("vehicle b did not move north: %v -> %v", vehicles[1].Lat, stored[1].Lat)
	}
	recent, err := sim.RecentEvents(ctx, SummaryWindow)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 {
		t.Errorf("stored events = %d", len(recent))
	}
}

func TestSimulator_SummaryWindow(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	sim, fixed := newTestSimulator(t, st, nil, nil)
	err := st.AppendEvents(ctx, []traffic.Event{
		{Type: traffic.EventCongestion, Timestamp: fixed.Add(-25 * time.Hour)},
		{Type: traffic.EventCongestion, Timestamp: fixed.Add(-time.Hour)},
		{Type: traffic.EventDistressCall, Timestamp: fixed.Add(-time.Minute)},
		{Type: traffic.EventCongestion, Timestamp: fixed.Add(-time.Second)},
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := sim.Summary(ctx, SummaryWindow)
	if err != nil {
		t.Fatal(err)
	}
	want := []traffic.TypeCount{{Type: traffic.EventCongestion, Count: 2}, {Type: traffic.EventDistressCall, Count: 1}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("summary = %+v, want %+v", got, want)
	}
}

func TestSimulator_WriterErrorDoesNotFailStep(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	sim, _ := newTestSimulator(t, st, failingWriter{}, nil)
	if _, err := Bootstrap(ctx, st, sim.GetConfig(), rand.New(rand.NewSource(1))); err != nil {
		t.Fatal(err)
	}
	if _, err := sim.Step(ctx); err != nil {
		t.Fatalf("Step returned writer error: %v", err)
	}
	if sim.Ticks() != 1 {
		t.Errorf("ticks = %d", sim.Ticks())
	}
}

func TestSimulator_SnapshotBeforeStep(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	sim, _ := newTestSimulator(t, st, nil, nil)
	if _, err := Bootstrap(ctx, st, sim.GetConfig(), rand.New(rand.NewSource(1))); err != nil {
		t.Fatal(err)
	}
	snap, err := sim.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Tick != 0 || len(snap.Vehicles) != 20 || len(snap.Vessels) != 5 {
		t.Fatalf("snapshot = tick %d, %d vehicles, %d vessels", snap.Tick, len(snap.Vehicles), len(snap.Vessels))
	}
	if _, err := sim.Step(ctx); err != nil {
		t.Fatal(err)
	}
	snap, err = sim.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Tick != 1 {
		t.Errorf("tick after step = %d", snap.Tick)
	}
	snap.Vehicles[0].ID = "mutated"
	again, _ := sim.Snapshot(ctx)
	if again.Vehicles[0].ID == "mutated" {
		t.Error("snapshot shares memory with simulator state")
	}
}

func TestSimulator_RunStopsOnCancel(t *testing.T) {
	st := store.NewMemory()
	writer := &MockWriter{}
	sim, _ := newTestSimulator(t, st, writer, nil)
	sim.tickInterval = 5 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	if _, err := Bootstrap(ctx, st, sim.GetConfig(), rand.New(rand.NewSource(1))); err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	go func() {
		sim.Run(ctx)
		close(done)
	}()
	deadline := time.After(2 * time.Second)
	for sim.Ticks() < 2 {
		select {
		case <-deadline:
			t.Fatal("simulator did not tick")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSimulator_AddHazardZone(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	sim, _ := newTestSimulator(t, st, nil, nil)
	if err := sim.AddHazardZone(ctx, traffic.HazardZone{Name: "Pothole", Lat: 17.97, Lon: 79.6, RadiusM: 15}); err != nil {
		t.Fatal(err)
	}
	if err := sim.AddHazardZone(ctx, traffic.HazardZone{Name: "bad", RadiusM: -1}); err == nil {
		t.Error("expected error for negative radius")
	}
	if err := sim.AddHazardZone(ctx, traffic.HazardZone{Name: "offworld", Lat: 500, Lon: -999, RadiusM: 10}); err == nil {
		t.Error("expected error for out-of-range coordinate")
	}
	zones, err := sim.HazardZones(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(zones) != 1 || zones[0].ID == 0 {
		t.Errorf("zones = %+v", zones)
	}
}
