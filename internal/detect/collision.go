package detect

import (
	"fmt"
	"math"
	"sort"

	"vanet-sim/internal/geo"
	"vanet-sim/internal/traffic"
)

// CollisionIndex selects how candidate pairs are enumerated.
type CollisionIndex string

const (
	// IndexBruteForce compares every pair. O(n²).
	IndexBruteForce CollisionIndex = "brute"
	// IndexGrid buckets entities into latitude/longitude cells at least the
	// proximity threshold across and only compares neighbouring cells.
	IndexGrid CollisionIndex = "grid"
)

// CollisionRisk reports each pair closer than ProximityM whose speeds differ
// by more than SpeedDiffKmh. Vehicles come before vessels in the combined
// sequence and pairs are reported in (i, j) order.
func CollisionRisk(vehicles, vessels []traffic.Entity, p Params) []traffic.Event {
	all := make([]traffic.Entity, 0, len(vehicles)+len(vessels))
	all = append(all, vehicles...)
	all = append(all, vessels...)

	var events []traffic.Event
	check := func(i, j int) {
		a, b := all[i], all[j]
		if !atRisk(a, b, p) {
			return
		}
		lat, lon := geo.Midpoint(a.Lat, a.Lon, b.Lat, b.Lon)
		events = append(events, traffic.Event{
			Type:             traffic.EventAccidentRisk,
			Description:      fmt.Sprintf("Potential collision between %s and %s", a.ID, b.ID),
			Lat:              lat,
			Lon:              lon,
			InvolvedEntities: []string{a.ID, b.ID},
		})
	}

	if p.Index == IndexGrid && p.ProximityM > 0 {
		for _, pr := range gridPairs(all, p.ProximityM) {
			check(pr[0], pr[1])
		}
		return events
	}
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			check(i, j)
		}
	}
	return events
}

func atRisk(a, b traffic.Entity, p Params) bool {
	if math.Abs(a.Speed-b.Speed) <= p.SpeedDiffKmh {
		return false
	}
	return geo.Distance(a.Lat, a.Lon, b.Lat, b.Lon) < p.ProximityM
}

type cell struct{ x, y int64 }

// gridPairs returns candidate index pairs (i<j) sorted ascending, covering
// every pair closer than proximityM. Rows are latitude bands proximityM
// tall. Columns are longitude bands wide enough that, at the population's
// highest latitude, two points in non-adjacent columns are at least
// proximityM apart; columns wrap at the antimeridian. When fewer than three
// columns fit around the globe every pair is returned.
func gridPairs(all []traffic.Entity, proximityM float64) [][2]int {
	if len(all) < 2 {
		return nil
	}
	// Haversine gives d >= R*|dlat| and d >= (2/pi)*R*cos(lat)*|dlon|.
	minCos := 1.0
	for _, e := range all {
		if math.IsNaN(e.Lat) || math.IsNaN(e.Lon) || math.Abs(e.Lat) > 90 {
			return allPairs(len(all))
		}
		minCos = math.Min(minCos, math.Cos(e.Lat*math.Pi/180))
	}
	if minCos <= 0 {
		return allPairs(len(all))
	}
	colDeg := 90 * proximityM / (geo.EarthRadiusM * minCos)
	cols := int64(math.Floor(360 / colDeg))
	if cols < 3 {
		return allPairs(len(all))
	}
	colW := 360 / float64(cols)
	rowDeg := proximityM / geo.EarthRadiusM * 180 / math.Pi

	cells := make(map[cell][]int)
	keys := make([]cell, len(all))
	for i, e := range all {
		lon := math.Mod(e.Lon+180, 360)
		if lon < 0 {
			lon += 360
		}
		x := int64(math.Floor(lon / colW))
		if x >= cols {
			x = cols - 1
		}
		c := cell{x: x, y: int64(math.Floor(e.Lat / rowDeg))}
		keys[i] = c
		cells[c] = append(cells[c], i)
	}

	var pairs [][2]int
	for i, c := range keys {
		for dx := int64(-1); dx <= 1; dx++ {
			x := (c.x + dx + cols) % cols
			for dy := int64(-1); dy <= 1; dy++ {
				for _, j := range cells[cell{x, c.y + dy}] {
					if j > i {
						pairs = append(pairs, [2]int{i, j})
					}
				}
			}
		}
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a][0] != pairs[b][0] {
			return pairs[a][0] < pairs[b][0]
		}
		return pairs[a][1] < pairs[b][1]
	})
	return pairs
}

func allPairs(n int) [][2]int {
	pairs := make([][2]int, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	return pairs
}
