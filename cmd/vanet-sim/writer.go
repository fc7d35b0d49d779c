package main

import (
	"context"
	"os"

	"golang.org/x/term"

	"vanet-sim/internal/config"
	"vanet-sim/internal/logging"
	"vanet-sim/internal/sim"
)

// writerOptions selects the sinks a run publishes to.
type writerOptions struct {
	printOnly    bool
	tui          bool
	color        string // auto|always|never
	exportPath   string
	redisAddr    string
	redisChannel string
}

// writers bundles the sinks handed to the simulator.
type writers struct {
	pos     sim.PositionWriter
	events  sim.EventWriter
	state   sim.StateWriter
	tui     *sim.TUIWriter
	cleanup func()
}

// optionsFromEnv fills sink settings that are configured through the environment.
func optionsFromEnv(o writerOptions) writerOptions {
	if o.redisAddr == "" {
		o.redisAddr = os.Getenv("REDIS_ADDR")
	}
	if o.redisChannel == "" {
		o.redisChannel = os.Getenv("REDIS_CHANNEL")
	}
	return o
}

// newWriters sets up position, event and state writers based on flags and
// env vars. The returned cleanup closes any files and connections.
func newWriters(ctx context.Context, cfg *config.SimulationConfig, o writerOptions) (*writers, error) {
	log := logging.FromContext(ctx)
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	base, tui, err := baseWriter(cfg, o)
	if err != nil {
		return nil, err
	}
	if tui != nil {
		closers = append(closers, func() { tui.Close() })
	}
	pws := []sim.PositionWriter{base}
	ews := []sim.EventWriter{base}
	sws := []sim.StateWriter{base}

	if o.exportPath != "" {
		fw, err := sim.NewFileWriter(o.exportPath, o.exportPath+".events", o.exportPath+".state")
		if err != nil {
			cleanup()
			return nil, err
		}
		closers = append(closers, func() { fw.Close() })
		pws = append(pws, fw)
		ews = append(ews, fw)
		sws = append(sws, fw)
	}

	if o.redisAddr != "" {
		rw, client, err := sim.NewRedisEventWriter(ctx, o.redisAddr, o.redisChannel, cfg.ClusterID)
		if err != nil {
			cleanup()
			return nil, err
		}
		closers = append(closers, func() { client.Close() })
		ews = append(ews, rw)
		log.Info("publishing events to redis", "addr", o.redisAddr)
	}

	w := &writers{tui: tui, cleanup: cleanup}
	if len(pws) == 1 && len(ews) == 1 {
		w.pos, w.events, w.state = base, base, base
		return w, nil
	}
	mw := sim.NewMultiWriter(pws, ews, sws)
	w.pos, w.events, w.state = mw, mw, mw
	return w, nil
}

// sink is a writer accepting all three record kinds.
type sink interface {
	sim.PositionWriter
	sim.EventWriter
	sim.StateWriter
}

// baseWriter chooses the primary sink: the TUI, STDOUT or GreptimeDB.
func baseWriter(cfg *config.SimulationConfig, o writerOptions) (sink, *sim.TUIWriter, error) {
	if o.tui {
		t := sim.NewTUIWriter(cfg)
		return t, t, nil
	}
	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	if o.printOnly || endpoint == "" {
		if useColor(o.color) {
			return sim.NewColorStdoutWriter(cfg), nil, nil
		}
		return sim.NewJSONStdoutWriter(), nil, nil
	}
	database := os.Getenv("GREPTIMEDB_DATABASE")
	if database == "" {
		database = "public"
	}
	w, err := sim.NewGreptimeDBWriter(endpoint, database, cfg.ClusterID)
	if err != nil {
		return nil, nil, err
	}
	return w, nil, nil
}

func useColor(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
