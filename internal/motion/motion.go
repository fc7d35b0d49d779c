// Package motion advances entities by dead reckoning with a small random walk
// on speed and heading.
//
// The longitude step divides by cos(latitude) of the current position. Near
// the poles this blows up; entities are expected to stay at mid latitudes and
// no guard is applied.
//
// A negative input speed is clamped to 0 before the displacement is computed,
// so such an entity does not move that tick and its next speed is drawn
// around 0.
package motion

import (
	"math"

	"vanet-sim/internal/geo"
	"vanet-sim/internal/traffic"
)

// Default perturbation bounds.
const (
	DefaultSpeedJitterKmh   = 2.0
	DefaultHeadingJitterDeg = 10.0
)

// Model holds the perturbation bounds applied per step.
type Model struct {
	SpeedJitterKmh   float64
	HeadingJitterDeg float64
}

// DefaultModel returns the model with ±2 km/h and ±10° perturbation.
func DefaultModel() Model {
	return Model{SpeedJitterKmh: DefaultSpeedJitterKmh, HeadingJitterDeg: DefaultHeadingJitterDeg}
}

// Advance moves lat/lon along heading for dtSeconds and perturbs speed and
// heading. Speed is in km/h and heading in degrees.
func (m Model) Advance(lat, lon, speed, heading, dtSeconds float64, rng traffic.RandSource) (float64, float64, float64, float64) {
	if speed < 0 {
		speed = 0
	}
	dist := speed / 3.6 * dtSeconds
	hRad := heading * math.Pi / 180

	dLat := dist * math.Cos(hRad) / geo.EarthRadiusM * (180 / math.Pi)
	dLon := dist * math.Sin(hRad) / (geo.EarthRadiusM * math.Cos(lat*math.Pi/180)) * (180 / math.Pi)

	newSpeed := math.Max(0, speed+traffic.Uniform(rng, -m.SpeedJitterKmh, m.SpeedJitterKmh))
	newHeading := WrapHeading(heading + traffic.Uniform(rng, -m.HeadingJitterDeg, m.HeadingJitterDeg))
	return lat + dLat, lon + dLon, newSpeed, newHeading
}

// Step returns a copy of e advanced by dtSeconds.
func (m Model) Step(e traffic.Entity, dtSeconds float64, rng traffic.RandSource) traffic.Entity {
	e.Lat, e.Lon, e.Speed, e.Heading = m.Advance(e.Lat, e.Lon, e.Speed, e.Heading, dtSeconds, rng)
	return e
}

// WrapHeading folds any angle into [0, 360).
func WrapHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}
