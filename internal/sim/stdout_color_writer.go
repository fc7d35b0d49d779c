// ColorStdoutWriter prints human-friendly, colorized simulation output to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"vanet-sim/internal/config"
	"vanet-sim/internal/traffic"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

var eventColors = map[traffic.EventType]string{
	traffic.EventAccidentRisk: colorRed,
	traffic.EventCongestion:   colorYellow,
	traffic.EventDamagedRoad:  colorMagenta,
	traffic.EventRoughWeather: colorCyan,
	traffic.EventDistressCall: colorRed,
}

// ColorStdoutWriter prints rows using ANSI colors.
type ColorStdoutWriter struct {
	cfg  *config.SimulationConfig
	out  io.Writer
	once sync.Once
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(cfg *config.SimulationConfig) *ColorStdoutWriter {
	return &ColorStdoutWriter{cfg: cfg, out: os.Stdout}
}

func (w *ColorStdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}
	fmt.Fprintln(w.out, "Simulation Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Region:\t%s (%.0f km)\n", w.cfg.Region.Name, w.cfg.Region.SizeKm)
	fmt.Fprintf(tw, "Vehicles / Vessels:\t%d / %d\n", w.cfg.Vehicles.Count, w.cfg.Vessels.Count)
	fmt.Fprintf(tw, "Proximity (m):\t%.0f\n", w.cfg.Thresholds.ProximityM)
	fmt.Fprintf(tw, "Speed Difference (km/h):\t%.0f\n", w.cfg.Thresholds.SpeedDiffKmh)
	fmt.Fprintf(tw, "Congestion Density (/km²):\t%.0f\n", w.cfg.Thresholds.CongestionDensity)
	fmt.Fprintf(tw, "Rough Weather (km/h):\t%.0f\n", w.cfg.Thresholds.RoughWeatherSpeedKmh)
	fmt.Fprintf(tw, "Distress Probability:\t%g\n", w.cfg.Thresholds.DistressCallProbability)
	fmt.Fprintf(tw, "Collision Index:\t%s\n", w.cfg.CollisionIndex)
	tw.Flush()

	if len(w.cfg.HazardZones) > 0 {
		fmt.Fprintln(w.out, "\nHazard Zones:")
		tw = tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Name\tLat\tLon\tRadius (m)\n")
		for _, z := range w.cfg.HazardZones {
			fmt.Fprintf(tw, "%s%s%s\t%.5f\t%.5f\t%.0f\n", colorMagenta, z.Name, colorReset, z.Lat, z.Lon, z.RadiusM)
		}
		tw.Flush()
	}
	fmt.Fprintln(w.out)
}

// Write outputs a single position row in colorized format.
func (w *ColorStdoutWriter) Write(row traffic.PositionRow) error {
	w.once.Do(w.printOverview)
	kindColor := colorGreen
	if row.Kind == traffic.KindVessel {
		kindColor = colorBlue
	}
	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, row.Timestamp.Format(time.RFC3339), colorReset)
	fmt.Fprintf(w.out, "%scluster=%s%s ", colorBlue, row.ClusterID, colorReset)
	fmt.Fprintf(w.out, "%s%s=%s%s ", kindColor, row.Kind, row.EntityID, colorReset)
	fmt.Fprintf(w.out, "%slat=%.5f%s ", colorGreen, row.Lat, colorReset)
	fmt.Fprintf(w.out, "%slon=%.5f%s ", colorYellow, row.Lon, colorReset)
	fmt.Fprintf(w.out, "%sspd=%.1f%s ", colorCyan, row.Speed, colorReset)
	fmt.Fprintf(w.out, "%shdg=%.1f%s\n", colorMagenta, row.Heading, colorReset)
	return nil
}

// WriteBatch outputs multiple position rows.
func (w *ColorStdoutWriter) WriteBatch(rows []traffic.PositionRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteEvent prints a safety event to STDOUT.
func (w *ColorStdoutWriter) WriteEvent(ev traffic.Event) error {
	w.once.Do(w.printOverview)
	col, ok := eventColors[ev.Type]
	if !ok {
		col = colorRed
	}
	fmt.Fprintf(w.out, "%s[%s]%s %s%s%s %s (%.5f, %.5f)\n",
		colorGray, ev.Timestamp.Format(time.RFC3339), colorReset,
		col, ev.Type, colorReset, ev.Description, ev.Lat, ev.Lon)
	return nil
}

// WriteState prints the per-tick summary to STDOUT.
func (w *ColorStdoutWriter) WriteState(row traffic.TickStateRow) error {
	w.once.Do(w.printOverview)
	fmt.Fprintf(w.out, "%s[%s]%s %sTICK %d%s vehicles=%d vessels=%d events=%d\n",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorBlue, row.Tick, colorReset, row.Vehicles, row.Vessels, row.Events)
	return nil
}
