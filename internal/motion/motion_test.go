package motion

import (
	"math"
	"math/rand"
	"testing"

	"vanet-sim/internal/geo"
	"vanet-sim/internal/traffic"
)

// seqSource replays fixed draws and repeats the last one.
type seqSource struct {
	vals []float64
	i    int
}

func (s *seqSource) Float64() float64 {
	v := s.vals[s.i]
	if s.i < len(s.vals)-1 {
		s.i++
	}
	return v
}

func TestAdvanceNorthMovesLatitudeOnly(t *testing.T) {
	m := DefaultModel()
	// 0.5 draws give zero jitter on both speed and heading.
	lat, lon, speed, heading := m.Advance(18, 79.6, 36, 0, 10, &seqSource{vals: []float64{0.5}})
	if d := geo.Distance(18, 79.6, lat, lon); math.Abs(d-100) > 0.01 {
		t.Fatalf("expected to move 100m, moved %f", d)
	}
	if lon != 79.6 {
		t.Errorf("longitude changed on a northbound step: %f", lon)
	}
	if speed != 36 || heading != 0 {
		t.Errorf("expected unchanged speed/heading, got %f/%f", speed, heading)
	}
}

func TestAdvanceEastUsesLatitudeScaling(t *testing.T) {
	m := DefaultModel()
	lat, lon, _, _ := m.Advance(60, 10, 36, 90, 10, &seqSource{vals: []float64{0.5}})
	if math.Abs(lat-60) > 1e-9 {
		t.Errorf("latitude drifted on an eastbound step: %f", lat)
	}
	if d := geo.Distance(60, 10, lat, lon); math.Abs(d-100) > 0.05 {
		t.Fatalf("expected to move ~100m east, moved %f", d)
	}
}

func TestAdvanceSpeedNeverNegative(t *testing.T) {
	m := DefaultModel()
	r := rand.New(rand.NewSource(1))
	for _, in := range []float64{-50, -1, 0, 0.5, 1, 1.9, 100} {
		for i := 0; i < 200; i++ {
			_, _, speed, _ := m.Advance(18, 79, in, 45, 1, r)
			if speed < 0 {
				t.Fatalf("speed %f went negative from %f", speed, in)
			}
		}
	}
	// Lowest draw on a stopped entity.
	_, _, speed, _ := m.Advance(18, 79, 0, 0, 1, &seqSource{vals: []float64{0}})
	if speed != 0 {
		t.Fatalf("expected clamp to 0, got %f", speed)
	}
}

func TestAdvanceNegativeSpeedDoesNotMove(t *testing.T) {
	m := DefaultModel()
	lat, lon, _, _ := m.Advance(18, 79, -30, 0, 10, &seqSource{vals: []float64{0.5}})
	if lat != 18 || lon != 79 {
		t.Fatalf("negative speed moved the entity to %f,%f", lat, lon)
	}
}

func TestAdvanceHeadingWraps(t *testing.T) {
	m := DefaultModel()
	r := rand.New(rand.NewSource(2))
	for _, in := range []float64{-720, -10, 0, 355, 359.999, 360, 725} {
		for i := 0; i < 200; i++ {
			_, _, _, h := m.Advance(18, 79, 20, in, 1, r)
			if h < 0 || h >= 360 {
				t.Fatalf("heading %f out of range from %f", h, in)
			}
		}
	}
	// Upper draw from 355 lands past 360 and must wrap.
	_, _, _, h := m.Advance(18, 79, 20, 355, 1, &seqSource{vals: []float64{0.5, 0.99}})
	if h < 0 || h >= 10 {
		t.Fatalf("expected wrapped heading near 4.8, got %f", h)
	}
}

func TestWrapHeading(t *testing.T) {
	cases := map[float64]float64{0: 0, 360: 0, -90: 270, 450: 90, 720: 0}
	for in, want := range cases {
		if got := WrapHeading(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("WrapHeading(%f)=%f, want %f", in, got, want)
		}
	}
}

func TestStepKeepsIdentity(t *testing.T) {
	e := traffic.Entity{ID: "v1", Kind: traffic.KindVehicle, Lat: 18, Lon: 79, Speed: 40, Heading: 10}
	got := DefaultModel().Step(e, 1, rand.New(rand.NewSource(3)))
	if got.ID != e.ID || got.Kind != e.Kind {
		t.Fatalf("identity changed: %+v", got)
	}
	if got.Lat == e.Lat && got.Lon == e.Lon {
		t.Fatalf("expected position to change")
	}
}
