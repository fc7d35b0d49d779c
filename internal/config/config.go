// YAML config loader with CUE validation integration
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"vanet-sim/internal/detect"
	"vanet-sim/internal/motion"
)

// ErrInvalid reports a configuration that parses but cannot be simulated.
var ErrInvalid = errors.New("invalid configuration")

// Bounds is a lat/lon rectangle used for spawning.
type Bounds struct {
	LatMin float64 `yaml:"lat_min"`
	LatMax float64 `yaml:"lat_max"`
	LonMin float64 `yaml:"lon_min"`
	LonMax float64 `yaml:"lon_max"`
}

// Center returns the midpoint of the rectangle.
func (b Bounds) Center() detect.Point {
	return detect.Point{Lat: (b.LatMin + b.LatMax) / 2, Lon: (b.LonMin + b.LonMax) / 2}
}

// Point is a single coordinate.
type Point struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// Region is the road network area vehicles spawn in.
type Region struct {
	Name   string  `yaml:"name"`
	Bounds Bounds  `yaml:"bounds"`
	SizeKm float64 `yaml:"size_km"`
}

// Maritime describes the sea area and the reference shore point.
type Maritime struct {
	Bounds             Bounds  `yaml:"bounds"`
	Shore              Point   `yaml:"shore"`
	OpenWaterDistanceM float64 `yaml:"open_water_distance_m"`
}

// Population is the initial count and speed range of one entity kind.
type Population struct {
	Count       int     `yaml:"count"`
	SpeedMinKmh float64 `yaml:"speed_min_kmh"`
	SpeedMaxKmh float64 `yaml:"speed_max_kmh"`
}

// Thresholds are the detector tunables.
type Thresholds struct {
	ProximityM              float64 `yaml:"proximity_m"`
	SpeedDiffKmh            float64 `yaml:"speed_diff_kmh"`
	CongestionDensity       float64 `yaml:"congestion_density"`
	RoughWeatherSpeedKmh    float64 `yaml:"rough_weather_speed_kmh"`
	DistressCallProbability float64 `yaml:"distress_call_probability"`
}

// Motion holds random walk bounds and the simulated step length.
type Motion struct {
	SpeedJitterKmh   float64 `yaml:"speed_jitter_kmh"`
	HeadingJitterDeg float64 `yaml:"heading_jitter_deg"`
	StepSeconds      float64 `yaml:"step_seconds"`
}

// Zone is a configured hazard zone seeded into an empty store.
type Zone struct {
	Name    string  `yaml:"name"`
	Lat     float64 `yaml:"lat"`
	Lon     float64 `yaml:"lon"`
	RadiusM float64 `yaml:"radius_m"`
}

// SimulationConfig is the root configuration.
type SimulationConfig struct {
	ClusterID      string                `yaml:"cluster_id"`
	Scenario       string                `yaml:"scenario"`
	Seed           int64                 `yaml:"seed"`
	UpdateInterval time.Duration         `yaml:"update_interval"`
	Region         Region                `yaml:"region"`
	Maritime       Maritime              `yaml:"maritime"`
	Vehicles       Population            `yaml:"vehicles"`
	Vessels        Population            `yaml:"vessels"`
	Thresholds     Thresholds            `yaml:"thresholds"`
	Motion         Motion                `yaml:"motion"`
	CollisionIndex detect.CollisionIndex `yaml:"collision_index"`
	HazardZones    []Zone                `yaml:"hazard_zones"`
}

// Default returns the Hanamkonda configuration the simulator ships with.
func Default() *SimulationConfig {
	return &SimulationConfig{
		ClusterID:      "vanet-local",
		UpdateInterval: time.Second,
		Region: Region{
			Name:   "hanamkonda",
			Bounds: Bounds{LatMin: 17.95, LatMax: 18.00, LonMin: 79.58, LonMax: 79.62},
			SizeKm: detect.DefaultAreaSizeKm,
		},
		Maritime: Maritime{
			Bounds:             Bounds{LatMin: 17.80, LatMax: 17.85, LonMin: 79.70, LonMax: 79.75},
			Shore:              Point{Lat: 17.80, Lon: 79.70},
			OpenWaterDistanceM: detect.DefaultOpenWaterDistanceM,
		},
		Vehicles: Population{Count: 20, SpeedMinKmh: 20, SpeedMaxKmh: 60},
		Vessels:  Population{Count: 5, SpeedMinKmh: 5, SpeedMaxKmh: 20},
		Thresholds: Thresholds{
			ProximityM:              detect.DefaultProximityM,
			SpeedDiffKmh:            detect.DefaultSpeedDiffKmh,
			CongestionDensity:       detect.DefaultCongestionDensity,
			RoughWeatherSpeedKmh:    detect.DefaultRoughWeatherSpeedKmh,
			DistressCallProbability: detect.DefaultDistressCallProbability,
		},
		Motion: Motion{
			SpeedJitterKmh:   motion.DefaultSpeedJitterKmh,
			HeadingJitterDeg: motion.DefaultHeadingJitterDeg,
			StepSeconds:      1,
		},
		CollisionIndex: detect.IndexBruteForce,
	}
}

// Load reads a YAML config over Default and validates it against the
// embedded CUE schema. An empty schemaPath uses the embedded schema.
func Load(configPath, schemaPath string) (*SimulationConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	schema := embeddedSchema
	if schemaPath != "" {
		if schema, err = os.ReadFile(schemaPath); err != nil {
			return nil, fmt.Errorf("read schema: %w", err)
		}
	}
	if err := ValidateWithCue(data, schema); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from CLUSTER_ID and TICK_INTERVAL.
func (c *SimulationConfig) ApplyEnv() error {
	if v := os.Getenv("CLUSTER_ID"); v != "" {
		c.ClusterID = v
	}
	if v := os.Getenv("TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TICK_INTERVAL: %w", err)
		}
		c.UpdateInterval = d
	}
	return nil
}

// Validate checks semantic constraints the schema cannot express.
func (c *SimulationConfig) Validate() error {
	if err := c.Region.Bounds.validate("region"); err != nil {
		return err
	}
	if err := c.Maritime.Bounds.validate("maritime"); err != nil {
		return err
	}
	if c.Region.SizeKm <= 0 {
		return fmt.Errorf("%w: region.size_km must be positive", ErrInvalid)
	}
	for name, p := range map[string]Population{"vehicles": c.Vehicles, "vessels": c.Vessels} {
		if p.Count < 0 {
			return fmt.Errorf("%w: %s.count is negative", ErrInvalid, name)
		}
		if p.SpeedMinKmh < 0 || p.SpeedMaxKmh < p.SpeedMinKmh {
			return fmt.Errorf("%w: %s speed range [%g, %g]", ErrInvalid, name, p.SpeedMinKmh, p.SpeedMaxKmh)
		}
	}
	t := c.Thresholds
	if t.ProximityM < 0 || t.SpeedDiffKmh < 0 || t.CongestionDensity < 0 || t.RoughWeatherSpeedKmh < 0 {
		return fmt.Errorf("%w: thresholds must not be negative", ErrInvalid)
	}
	if t.DistressCallProbability < 0 || t.DistressCallProbability > 1 {
		return fmt.Errorf("%w: distress_call_probability %g outside [0,1]", ErrInvalid, t.DistressCallProbability)
	}
	if c.Motion.StepSeconds <= 0 {
		return fmt.Errorf("%w: motion.step_seconds must be positive", ErrInvalid)
	}
	if c.UpdateInterval <= 0 {
		return fmt.Errorf("%w: update_interval must be positive", ErrInvalid)
	}
	switch c.CollisionIndex {
	case detect.IndexBruteForce, detect.IndexGrid:
	default:
		return fmt.Errorf("%w: unknown collision_index %q", ErrInvalid, c.CollisionIndex)
	}
	for _, z := range c.HazardZones {
		if z.RadiusM < 0 {
			return fmt.Errorf("%w: hazard zone %q has negative radius", ErrInvalid, z.Name)
		}
	}
	return nil
}

func (b Bounds) validate(section string) error {
	if b.LatMin > b.LatMax || b.LonMin > b.LonMax {
		return fmt.Errorf("%w: %s bounds are inverted", ErrInvalid, section)
	}
	if math.Abs(b.LatMin) > 90 || math.Abs(b.LatMax) > 90 {
		return fmt.Errorf("%w: %s latitude out of range", ErrInvalid, section)
	}
	return nil
}

// DetectParams maps the config onto detector parameters.
func (c *SimulationConfig) DetectParams() detect.Params {
	return detect.Params{
		ProximityM:              c.Thresholds.ProximityM,
		SpeedDiffKmh:            c.Thresholds.SpeedDiffKmh,
		Index:                   c.CollisionIndex,
		CongestionDensity:       c.Thresholds.CongestionDensity,
		AreaSizeKm:              c.Region.SizeKm,
		AreaCenter:              c.Region.Bounds.Center(),
		RoughWeatherSpeedKmh:    c.Thresholds.RoughWeatherSpeedKmh,
		OpenWaterDistanceM:      c.Maritime.OpenWaterDistanceM,
		Shore:                   detect.Point{Lat: c.Maritime.Shore.Lat, Lon: c.Maritime.Shore.Lon},
		DistressCallProbability: c.Thresholds.DistressCallProbability,
	}
}

// MotionModel maps the config onto the motion model.
func (c *SimulationConfig) MotionModel() motion.Model {
	return motion.Model{SpeedJitterKmh: c.Motion.SpeedJitterKmh, HeadingJitterDeg: c.Motion.HeadingJitterDeg}
}
