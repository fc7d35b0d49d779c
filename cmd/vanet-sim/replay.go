package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vanet-sim/internal/config"
	"vanet-sim/internal/sim"
)

var (
	replayInput     string
	replayEvents    string
	replaySpeed     float64
	replayPrintOnly bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a position or event log file",
	Long:  "replay feeds JSONL position rows and events exported by simulate back into GreptimeDB or STDOUT.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" && replayEvents == "" {
			return fmt.Errorf("--input or --events required")
		}
		ws, err := newWriters(cmd.Context(), config.Default(), writerOptions{printOnly: replayPrintOnly, color: "never"})
		if err != nil {
			return err
		}
		defer ws.cleanup()
		if replayInput != "" {
			if err := sim.ReplayLogFile(replayInput, ws.pos, replaySpeed); err != nil {
				return err
			}
		}
		if replayEvents != "" {
			if err := sim.ReplayEventsFile(replayEvents, ws.events, replaySpeed); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to position log file")
	replayCmd.Flags().StringVar(&replayEvents, "events", "", "Path to event log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print to STDOUT instead of writing to DB")
}
