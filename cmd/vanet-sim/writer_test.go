package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vanet-sim/internal/config"
	"vanet-sim/internal/sim"
	"vanet-sim/internal/store"
	"vanet-sim/internal/traffic"
)

func TestNewWritersPrintOnly(t *testing.T) {
	ws, err := newWriters(context.Background(), config.Default(), writerOptions{printOnly: true, color: "never"})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	ws.cleanup()
	if _, ok := ws.pos.(*sim.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", ws.pos)
	}
	if _, ok := ws.events.(*sim.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", ws.events)
	}
}

func TestNewWritersColor(t *testing.T) {
	ws, err := newWriters(context.Background(), config.Default(), writerOptions{printOnly: true, color: "always"})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	ws.cleanup()
	if _, ok := ws.pos.(*sim.ColorStdoutWriter); !ok {
		t.Fatalf("expected *sim.ColorStdoutWriter, got %T", ws.pos)
	}
}

func TestNewWritersGreptimeFallback(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	ws, err := newWriters(context.Background(), config.Default(), writerOptions{color: "never"})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	ws.cleanup()
	if _, ok := ws.pos.(*sim.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", ws.pos)
	}
}

func TestNewWritersExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.jsonl")
	ws, err := newWriters(context.Background(), config.Default(), writerOptions{printOnly: true, color: "never", exportPath: path})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if _, ok := ws.pos.(*sim.MultiWriter); !ok {
		t.Fatalf("expected *sim.MultiWriter, got %T", ws.pos)
	}
	ts := time.Unix(0, 0).UTC()
	if err := ws.pos.Write(traffic.PositionRow{ClusterID: "c1", EntityID: "vehicle-1", Timestamp: ts}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := ws.events.WriteEvent(traffic.Event{Type: traffic.EventCongestion, Timestamp: ts}); err != nil {
		t.Fatalf("write event failed: %v", err)
	}
	if err := ws.state.WriteState(traffic.TickStateRow{ClusterID: "c1", Tick: 1, Timestamp: ts}); err != nil {
		t.Fatalf("write state failed: %v", err)
	}
	ws.cleanup()
	for _, p := range []string{path, path + ".events", path + ".state"} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s: %v", p, err)
		}
		if info.Size() == 0 {
			t.Fatalf("expected %s to be non-empty", p)
		}
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_CHANNEL", "alerts")
	o := optionsFromEnv(writerOptions{redisChannel: "flag-channel"})
	if o.redisAddr != "localhost:6379" || o.redisChannel != "flag-channel" {
		t.Fatalf("unexpected options %+v", o)
	}
}

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	t.Setenv("CLUSTER_ID", "edge-7")
	t.Chdir(t.TempDir())
	cfg, err := loadConfig(defaultConfigPath, "", "harbor-grid")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.ClusterID != "edge-7" || cfg.Region.Name != "harbor-grid" {
		t.Fatalf("unexpected config %s %s", cfg.ClusterID, cfg.Region.Name)
	}
	if _, err := loadConfig("nope.yaml", "", ""); err == nil {
		t.Fatal("expected error for explicit missing config")
	}
}

func TestPrintSummary(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	now := time.Now().UTC()
	_ = st.AppendEvents(ctx, []traffic.Event{
		{Type: traffic.EventAccidentRisk, Timestamp: now},
		{Type: traffic.EventAccidentRisk, Timestamp: now},
		{Type: traffic.EventDistressCall, Timestamp: now},
		{Type: traffic.EventCongestion, Timestamp: now.Add(-48 * time.Hour)},
	})
	var buf bytes.Buffer
	if err := printSummary(ctx, st, now.Add(-24*time.Hour), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"accident_risk  2", "distress_call  1", "congestion     0", "total          3"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
