package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/RixhersAjazi/schedulemaker/core/runlog"
	"github.com/RixhersAjazi/schedulemaker/pkg/export"
)

var (
	runsSince  time.Duration
	runsSource string
	runsLimit  int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded searches from the run log",
	RunE:  listRuns,
}

func init() {
	runsCmd.Flags().DurationVar(&runsSince, "since", 0, "only runs newer than this, e.g. 24h")
	runsCmd.Flags().StringVar(&runsSource, "source", "", "filter by source (http, mqtt, cli)")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "most recent runs to show; 0 for all")
	rootCmd.AddCommand(runsCmd)
}

func listRuns(cmd *cobra.Command, args []string) error {
	svc, _, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	q := runlog.RunQuery{Source: runsSource, Limit: runsLimit}
	if runsSince > 0 {
		q.Start = time.Now().Add(-runsSince)
	}
	recs, err := svc.QueryRuns(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}
	if recs == nil {
		recs = []runlog.RunRecord{}
	}
	return export.WriteJSON(cmd.OutOrStdout(), recs)
}
