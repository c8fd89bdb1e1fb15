package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bugport/mailflow/pkg/cli"
	"github.com/bugport/mailflow/pkg/config"
	"github.com/bugport/mailflow/pkg/evidence/storage"
)

var evidenceFlags struct {
	limit  int
	output string
}

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Query recorded message dispositions",
	RunE:  runEvidence,
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	evidenceCmd.Flags().IntVarP(&evidenceFlags.limit, "limit", "n", 50, "maximum number of records")
	evidenceCmd.Flags().StringVarP(&evidenceFlags.output, "output", "o", "text", "output format (text or json)")
}

func runEvidence(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(evidenceFlags.output)
	if err != nil {
		return err
	}

	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return &cli.ConfigError{Message: err.Error()}
	}

	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{Path: cfg.Evidence.Path})
	if err != nil {
		return fmt.Errorf("opening evidence storage: %w", err)
	}
	defer store.Close()

	records, err := store.Recent(cmd.Context(), evidenceFlags.limit)
	if err != nil {
		return fmt.Errorf("querying evidence: %w", err)
	}

	if format == cli.FormatJSON {
		return cli.WriteJSON(os.Stdout, records)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RECORDED\tACTION\tFROM\tSUBJECT\tSIZE\tREASON")
	for _, r := range records {
		reason := r.RejectReason
		if reason == "" {
			reason = r.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.RecordedAt.Format("2006-01-02 15:04:05"),
			r.Action, r.From, truncate(r.Subject, 40), r.Size, reason)
	}
	return w.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
