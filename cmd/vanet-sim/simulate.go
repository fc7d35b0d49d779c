package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"vanet-sim/internal/admin"
	"vanet-sim/internal/config"
	"vanet-sim/internal/logging"
	"vanet-sim/internal/scenario"
	"vanet-sim/internal/sim"
	"vanet-sim/internal/store"
	"vanet-sim/internal/traffic"
)

var (
	simConfigPath string
	simSchemaPath string
	simScenario   string
	simTick       time.Duration
	simAdminAddr  string
	simStore      string
	simStoreDSN   string
	simWriterOpts writerOptions
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the real-time traffic simulator",
	Long:  "simulate advances vehicles and vessels every tick, detects safety events and publishes positions, events and tick state.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		log := logging.FromContext(ctx)

		cfg, err := loadConfig(simConfigPath, simSchemaPath, simScenario)
		if err != nil {
			return err
		}

		st, err := openStore(simStore, simStoreDSN)
		if err != nil {
			return err
		}
		defer st.Close()

		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		if _, err := sim.Bootstrap(ctx, st, cfg, rand.New(rand.NewSource(seed))); err != nil {
			return fmt.Errorf("bootstrap store: %w", err)
		}

		ws, err := newWriters(ctx, cfg, optionsFromEnv(simWriterOpts))
		if err != nil {
			return err
		}
		defer ws.cleanup()

		simulator := sim.NewSimulator(cfg.ClusterID, cfg, st, ws.pos, ws.events, simTick)
		simulator.SetStateWriter(ws.state)
		if ws.tui != nil {
			zones, err := simulator.HazardZones(ctx)
			if err != nil {
				return fmt.Errorf("load hazard zones: %w", err)
			}
			ws.tui.SetHazardZones(zones)
			ws.tui.SetZoneAdder(func(z traffic.HazardZone) error {
				if err := simulator.AddHazardZone(ctx, z); err != nil {
					log.Error("add hazard zone", "err", err)
					return err
				}
				return nil
			})
		}

		g, gctx := errgroup.WithContext(ctx)
		if simAdminAddr != "" {
			srv := admin.NewServer(simulator)
			sim.NotifyAdminStatus(ws.pos, true)
			g.Go(func() error {
				defer sim.NotifyAdminStatus(ws.pos, false)
				return srv.Start(gctx, simAdminAddr)
			})
		}
		g.Go(func() error {
			simulator.Run(gctx)
			return nil
		})

		log.Info("simulation started", "cluster_id", cfg.ClusterID, "region", cfg.Region.Name,
			"vehicles", cfg.Vehicles.Count, "vessels", cfg.Vessels.Count)
		err = g.Wait()
		log.Info("simulation stopped", "ticks", simulator.Ticks())
		return err
	},
}

// loadConfig reads the config file (or defaults when the default path is
// absent), applies env overrides and the selected scenario.
func loadConfig(path, schemaPath, scenarioName string) (*config.SimulationConfig, error) {
	var cfg *config.SimulationConfig
	if _, err := os.Stat(path); err == nil {
		if cfg, err = config.Load(path, schemaPath); err != nil {
			return nil, err
		}
	} else if path != defaultConfigPath {
		return nil, fmt.Errorf("read config: %w", err)
	} else {
		cfg = config.Default()
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if scenarioName == "" {
		scenarioName = cfg.Scenario
	}
	if scenarioName != "" {
		sc, err := scenario.Lookup(scenarioName)
		if err != nil {
			return nil, err
		}
		if err := sc.Apply(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// openStore picks the store driver, falling back to STORE_DRIVER and STORE_DSN.
func openStore(driver, dsn string) (store.Store, error) {
	if driver == "" {
		driver = os.Getenv("STORE_DRIVER")
	}
	if dsn == "" {
		dsn = os.Getenv("STORE_DSN")
	}
	st, err := store.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

const defaultConfigPath = "config/simulation.yaml"

func addStoreFlags(cmd *cobra.Command, driver, dsn *string) {
	cmd.Flags().StringVar(driver, "store", "", "Store driver: memory, sqlite or postgres (default from STORE_DRIVER, else memory)")
	cmd.Flags().StringVar(dsn, "store-dsn", "", "Store DSN (default from STORE_DSN)")
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simConfigPath, "config", defaultConfigPath, "Path to simulation configuration YAML")
	f.StringVar(&simSchemaPath, "schema", "", "Path to a CUE schema overriding the built-in one")
	f.StringVar(&simScenario, "scenario", "", "Built-in scenario name or scenario YAML path")
	f.DurationVar(&simTick, "tick", 0, "Tick interval (e.g. 500ms, 2s); defaults to update_interval")
	f.StringVar(&simAdminAddr, "admin-addr", ":8080", "Admin UI listen address; empty disables it")
	f.BoolVar(&simWriterOpts.printOnly, "print-only", false, "Print to STDOUT instead of writing to GreptimeDB")
	f.BoolVar(&simWriterOpts.tui, "tui", false, "Show the interactive terminal monitor")
	f.StringVar(&simWriterOpts.color, "color", "auto", "Colorize STDOUT output: auto, always or never")
	f.StringVar(&simWriterOpts.exportPath, "export", "", "Export positions, events and tick state as JSONL (events/state use .events/.state suffixes)")
	f.StringVar(&simWriterOpts.redisAddr, "redis-addr", "", "Publish events to Redis at this address (default from REDIS_ADDR)")
	f.StringVar(&simWriterOpts.redisChannel, "redis-channel", "", "Redis channel (default from REDIS_CHANNEL, else "+sim.DefaultRedisChannel+")")
	addStoreFlags(simulateCmd, &simStore, &simStoreDSN)
}

