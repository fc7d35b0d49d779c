package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"vanet-sim/internal/store"
	"vanet-sim/internal/traffic"
)

var (
	summarySince    time.Duration
	summaryStore    string
	summaryStoreDSN string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print event counts per type from the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(summaryStore, summaryStoreDSN)
		if err != nil {
			return err
		}
		defer st.Close()
		return printSummary(cmd.Context(), st, time.Now().Add(-summarySince), cmd.OutOrStdout())
	},
}

func printSummary(ctx context.Context, st store.Store, since time.Time, out io.Writer) error {
	events, err := st.RecentEvents(ctx, since)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	counts := traffic.CountByType(events)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tCOUNT")
	for _, t := range traffic.EventTypes {
		fmt.Fprintf(tw, "%s\t%d\n", t, counts[t])
	}
	fmt.Fprintf(tw, "total\t%d\n", len(events))
	return tw.Flush()
}

func init() {
	summaryCmd.Flags().DurationVar(&summarySince, "since", 24*time.Hour, "Count events newer than this")
	addStoreFlags(summaryCmd, &summaryStore, &summaryStoreDSN)
}
