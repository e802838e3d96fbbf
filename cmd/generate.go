package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RixhersAjazi/schedulemaker/app"
	"github.com/RixhersAjazi/schedulemaker/core/request"
	"github.com/RixhersAjazi/schedulemaker/pkg/export"
)

var (
	genFile    string
	genFormat  string
	genOut     string
	genVerbose bool
	genLimit   int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate schedules from a request file",
	RunE:  generate,
}

func init() {
	generateCmd.Flags().StringVarP(&genFile, "file", "f", "", "request file (.json, .yaml or .yml)")
	generateCmd.Flags().StringVar(&genFormat, "format", "json", "output format: json or csv")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "output file (stdout when empty)")
	generateCmd.Flags().BoolVarP(&genVerbose, "verbose", "v", false, "include the conflict log")
	generateCmd.Flags().IntVar(&genLimit, "limit", 0, "maximum number of schedules (0 uses search.max_results)")
	_ = generateCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(generateCmd)
}

func generate(cmd *cobra.Command, args []string) error {
	if genFormat != "json" && genFormat != "csv" {
		return fmt.Errorf("unknown output format %q", genFormat)
	}
	req, err := request.Load(genFile)
	if err != nil {
		return fmt.Errorf("load request: %w", err)
	}
	if genVerbose {
		req.Verbose = true
	}
	if cmd.Flags().Changed("limit") {
		req.Limit = genLimit
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, _, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	res, err := svc.Generate(app.WithSource(ctx, "cli"), req)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if genOut != "" {
		f, err := os.Create(genOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if genFormat == "csv" {
		err = export.WriteCSV(w, res.Schedules)
	} else {
		err = export.WriteJSON(w, res)
	}
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	stderr := cmd.ErrOrStderr()
	if len(res.Schedules) == 0 {
		fmt.Fprintln(stderr, "no schedules could be generated")
	}
	if res.Truncated {
		fmt.Fprintf(stderr, "output truncated at %d schedules\n", len(res.Schedules))
	}
	// JSON output already carries the conflicts.
	if genFormat == "csv" {
		for _, c := range res.Conflicts {
			fmt.Fprintln(stderr, c.Message)
		}
	}
	return nil
}
