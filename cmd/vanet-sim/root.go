package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"vanet-sim/internal/logging"
)

var (
	logLevel string
	logFile  string
	logJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "vanet-sim",
	Short: "Vehicular and maritime traffic safety simulator",
	Long:  "vanet-sim moves simulated vehicles and vessels, detects safety events and publishes them to stdout, files, GreptimeDB and Redis.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load .env: %w", err)
		}
		l, err := logging.New(logging.Options{Level: logLevel, File: logFile, JSON: logJSON})
		if err != nil {
			return err
		}
		slog.SetDefault(l)
		cmd.SetContext(logging.NewContext(cmd.Context(), l))
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to a rotating file instead of STDOUT")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit logs as JSON")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(summaryCmd)
}
