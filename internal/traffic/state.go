package traffic

import "time"

// StateTableName is the GreptimeDB table holding TickStateRow records.
const StateTableName = "tick_states"

// TickStateRow captures per-tick simulator counters.
type TickStateRow struct {
	ClusterID string            `json:"cluster_id"`
	Tick      int64             `json:"tick"`
	Vehicles  int               `json:"vehicles"`
	Vessels   int               `json:"vessels"`
	Events    int               `json:"events"`
	ByType    map[EventType]int `json:"by_type,omitempty"`
	Timestamp time.Time         `json:"ts"`
}

// TypeCount is one row of an event summary.
type TypeCount struct {
	Type  EventType `json:"type"`
	Count int       `json:"count"`
}

// Summarize counts events per type. Types with no events are omitted and the
// result follows EventTypes order.
func Summarize(events []Event) []TypeCount {
	counts := CountByType(events)
	var out []TypeCount
	for _, t := range EventTypes {
		if n := counts[t]; n > 0 {
			out = append(out, TypeCount{Type: t, Count: n})
		}
	}
	return out
}

// CountByType tallies events per type.
func CountByType(events []Event) map[EventType]int {
	counts := make(map[EventType]int)
	for _, ev := range events {
		counts[ev.Type]++
	}
	return counts
}
