package geo

import (
	"math"
	"math/rand"
	"testing"
)

func TestDistanceSymmetric(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		lat1, lon1 := r.Float64()*180-90, r.Float64()*360-180
		lat2, lon2 := r.Float64()*180-90, r.Float64()*360-180
		ab := Distance(lat1, lon1, lat2, lon2)
		ba := Distance(lat2, lon2, lat1, lon1)
		if math.Abs(ab-ba) > 1e-6 {
			t.Fatalf("distance not symmetric: %f vs %f", ab, ba)
		}
		if ab < 0 || math.IsNaN(ab) || math.IsInf(ab, 0) {
			t.Fatalf("invalid distance %f", ab)
		}
	}
}

func TestDistanceSamePoint(t *testing.T) {
	if d := Distance(17.97, 79.60, 17.97, 79.60); d > 1e-9 {
		t.Fatalf("expected zero distance, got %f", d)
	}
}

func TestDistanceKnownValue(t *testing.T) {
	// One degree of latitude along a meridian.
	want := EarthRadiusM * math.Pi / 180
	if got := Distance(0, 0, 1, 0); math.Abs(got-want) > 1e-6 {
		t.Fatalf("Distance = %f, want %f", got, want)
	}
}

func TestOffsetRoundTrip(t *testing.T) {
	lat, lon := Offset(17.97, 79.60, 3, 4)
	if d := Distance(17.97, 79.60, lat, lon); math.Abs(d-5) > 0.01 {
		t.Fatalf("expected ~5m offset, got %f", d)
	}
}

func TestMidpoint(t *testing.T) {
	lat, lon := Midpoint(10, 20, 12, 24)
	if lat != 11 || lon != 22 {
		t.Fatalf("Midpoint = (%f,%f), want (11,22)", lat, lon)
	}
}

func TestValidCoord(t *testing.T) {
	cases := []struct {
		lat, lon float64
		want     bool
	}{
		{17.97, 79.60, true},
		{90, 180, true},
		{-90, -180, true},
		{90.0001, 0, false},
		{0, -180.0001, false},
		{500, -999, false},
		{math.NaN(), 0, false},
		{0, math.NaN(), false},
	}
	for _, tc := range cases {
		if got := ValidCoord(tc.lat, tc.lon); got != tc.want {
			t.Errorf("ValidCoord(%v, %v) = %v, want %v", tc.lat, tc.lon, got, tc.want)
		}
	}
}
