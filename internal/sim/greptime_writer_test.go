package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"

	"vanet-sim/internal/traffic"
)

type mockGreptimeClient struct {
	tables []*table.Table
	err    error
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	m.tables = append(m.tables, tables...)
	return &gpb.GreptimeResponse{}, m.err
}

func TestGreptimeWriterEventsJSON(t *testing.T) {
	ts := time.Unix(0, 0).UTC()
	events := []traffic.Event{{
		Type:             traffic.EventAccidentRisk,
		Description:      "Potential collision between vehicle-1 and vehicle-2",
		InvolvedEntities: []string{"vehicle-1", "vehicle-2"},
		Timestamp:        ts,
	}}

	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, clusterID: "c1", eventTable: "safety_events"}
	if err := w.WriteEvents(events); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	if len(m.tables) != 1 {
		t.Fatalf("expected one table, got %d", len(m.tables))
	}

	schema := m.tables[0].GetRows().Schema
	if len(schema) < 3 {
		t.Fatalf("unexpected schema length: %d", len(schema))
	}
	if schema[2].Datatype != gpb.ColumnDataType_JSON {
		t.Fatalf("involved_entities column type = %v, want %v", schema[2].Datatype, gpb.ColumnDataType_JSON)
	}
	got := m.tables[0].GetRows().Rows[0].Values[2].GetStringValue()
	want := "[\"vehicle-1\",\"vehicle-2\"]"
	if got != want {
		t.Fatalf("involved_entities = %s, want %s", got, want)
	}
}

func TestGreptimeWriterPositions(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, posTable: "entity_positions"}
	rows := []traffic.PositionRow{
		{ClusterID: "c1", EntityID: "vehicle-1", Kind: traffic.KindVehicle, Lat: 17.9, Lon: 79.6, Timestamp: time.Unix(1, 0).UTC()},
		{ClusterID: "c1", EntityID: "vessel-1", Kind: traffic.KindVessel, Lat: 17.8, Lon: 79.7, Timestamp: time.Unix(1, 0).UTC()},
	}
	if err := w.WriteBatch(rows); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if n := len(m.tables[0].GetRows().Rows); n != 2 {
		t.Fatalf("rows = %d, want 2", n)
	}
	if err := w.WriteBatch(nil); err != nil || len(m.tables) != 1 {
		t.Fatalf("empty batch should be skipped")
	}
}

func TestGreptimeWriterSurfacesClientError(t *testing.T) {
	m := &mockGreptimeClient{err: errors.New("unavailable")}
	w := &GreptimeDBWriter{client: m, stateTable: "tick_states"}
	if err := w.WriteState(traffic.TickStateRow{ClusterID: "c1", Tick: 3, Timestamp: time.Unix(0, 0)}); err == nil {
		t.Fatal("expected error")
	}
}
