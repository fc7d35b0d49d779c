package sim

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"vanet-sim/internal/traffic"
)

type collectWriter struct {
	rows   []traffic.PositionRow
	events []traffic.Event
}

func (c *collectWriter) Write(r traffic.PositionRow) error {
	c.rows = append(c.rows, r)
	return nil
}

func (c *collectWriter) WriteEvent(ev traffic.Event) error {
	c.events = append(c.events, ev)
	return nil
}

func TestReplayLog(t *testing.T) {
	rows := []traffic.PositionRow{
		{ClusterID: "c1", EntityID: "vehicle-1", Timestamp: time.Unix(0, 0)},
		{ClusterID: "c1", EntityID: "vessel-1", Timestamp: time.Unix(1, 0)},
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	cw := &collectWriter{}
	if err := ReplayLog(&buf, cw, 0); err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if len(cw.rows) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(cw.rows))
	}
	for i, r := range rows {
		if cw.rows[i].EntityID != r.EntityID {
			t.Fatalf("row %d mismatch: %+v vs %+v", i, cw.rows[i], r)
		}
	}
}

func TestReplayEventsScalesDelay(t *testing.T) {
	var slept []time.Duration
	sleep = func(d time.Duration) { slept = append(slept, d) }
	defer func() { sleep = time.Sleep }()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	base := time.Unix(100, 0).UTC()
	for i := 0; i < 3; i++ {
		ev := traffic.Event{Type: traffic.EventCongestion, Timestamp: base.Add(time.Duration(i) * 4 * time.Second)}
		if err := enc.Encode(ev); err != nil {
			t.Fatal(err)
		}
	}
	cw := &collectWriter{}
	if err := ReplayEvents(&buf, cw, 2); err != nil {
		t.Fatalf("ReplayEvents: %v", err)
	}
	if len(cw.events) != 3 {
		t.Fatalf("events = %d", len(cw.events))
	}
	if len(slept) != 2 || slept[0] != 2*time.Second || slept[1] != 2*time.Second {
		t.Fatalf("slept = %v", slept)
	}
}

func TestReplayLogBadInput(t *testing.T) {
	if err := ReplayLog(strings.NewReader("{not json"), &collectWriter{}, 0); err == nil {
		t.Fatal("expected decode error")
	}
}
