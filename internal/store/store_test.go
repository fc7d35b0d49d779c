package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vanet-sim/internal/traffic"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	g, err := OpenGorm("sqlite", filepath.Join(t.TempDir(), "vanet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": g,
	}
}

func TestEntitiesUpsertKeepsOrder(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			vs := []traffic.Entity{
				{ID: "vehicle-b", Kind: traffic.KindVehicle, Lat: 17.96, Lon: 79.59, Speed: 30, Heading: 90},
				{ID: "vehicle-a", Kind: traffic.KindVehicle, Lat: 17.97, Lon: 79.60, Speed: 40, Heading: 180},
			}
			require.NoError(t, s.SaveEntities(ctx, traffic.KindVehicle, vs))
			require.NoError(t, s.SaveEntities(ctx, traffic.KindVessel, []traffic.Entity{
				{ID: "vessel-a", Kind: traffic.KindVessel, Lat: 17.81, Lon: 79.71, Speed: 8},
			}))

			vs[0].Speed = 55
			vs[0].Heading = 91
			require.NoError(t, s.SaveEntities(ctx, traffic.KindVehicle, vs[:1]))

			got, err := s.LoadEntities(ctx, traffic.KindVehicle)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "vehicle-b", got[0].ID)
			assert.Equal(t, 55.0, got[0].Speed)
			assert.Equal(t, 91.0, got[0].Heading)
			assert.Equal(t, "vehicle-a", got[1].ID)

			vessels, err := s.LoadEntities(ctx, traffic.KindVessel)
			require.NoError(t, err)
			require.Len(t, vessels, 1)
			assert.Equal(t, traffic.KindVessel, vessels[0].Kind)
		})
	}
}

func TestSaveEntitiesRejectsWrongKind(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := s.SaveEntities(context.Background(), traffic.KindVehicle, []traffic.Entity{
				{ID: "vessel-x", Kind: traffic.KindVessel},
			})
			assert.Error(t, err)
		})
	}
}

func TestHazardZonesAssignIDs(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.SaveHazardZones(ctx, []traffic.HazardZone{
				{Name: "Flood Area", Lat: 17.97, Lon: 79.60, RadiusM: 500},
				{Name: "Road Work", Lat: 17.98, Lon: 79.59, RadiusM: 200},
			}))
			zones, err := s.LoadHazardZones(ctx)
			require.NoError(t, err)
			require.Len(t, zones, 2)
			assert.NotZero(t, zones[0].ID)
			assert.Less(t, zones[0].ID, zones[1].ID)
			assert.Equal(t, "Flood Area", zones[0].Name)
			assert.Equal(t, 200.0, zones[1].RadiusM)
		})
	}
}

func TestRecentEventsAfterCutoff(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			events := []traffic.Event{
				{Type: traffic.EventCongestion, Description: "old", Timestamp: base.Add(-time.Hour)},
				{Type: traffic.EventAccidentRisk, Description: "pair", InvolvedEntities: []string{"a", "b"}, Timestamp: base.Add(time.Second)},
				{Type: traffic.EventDistressCall, Description: "sos", EntityID: "vessel-1", Timestamp: base.Add(2 * time.Second)},
			}
			require.NoError(t, s.AppendEvents(ctx, events))

			got, err := s.RecentEvents(ctx, base)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, traffic.EventAccidentRisk, got[0].Type)
			assert.Equal(t, []string{"a", "b"}, got[0].InvolvedEntities)
			assert.Empty(t, got[0].EntityID)
			assert.Equal(t, "vessel-1", got[1].EntityID)
			assert.Nil(t, got[1].InvolvedEntities)
			assert.True(t, got[1].Timestamp.Equal(base.Add(2*time.Second)))
		})
	}
}

func TestAppendEventsStampsZeroTimestamp(t *testing.T) {
	m := NewMemory()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	require.NoError(t, m.AppendEvents(context.Background(), []traffic.Event{{Type: traffic.EventRoughWeather}}))
	got, err := m.RecentEvents(context.Background(), fixed.Add(-time.Second))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, fixed, got[0].Timestamp)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("mongo", "")
	assert.Error(t, err)
	s, err := Open("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)
}
