package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mealcart/carecost-cli/internal/model"
	"github.com/mealcart/carecost-cli/internal/pipeline"
)

var validateVerbose bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Dry-run the pipeline and report data quality findings",
	Long:  "Runs the full pipeline without writing outputs or persisting results, then prints every flagged source record grouped by feed. Structural contract violations (duplicate base rows, fan-out) fail the command.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		opts, err := buildRunOptions()
		if err != nil {
			return err
		}

		result, err := pipeline.Run(ctx, opts)
		if err != nil {
			return eris.Wrap(err, "validate")
		}

		formatAuditSummary(os.Stdout, result.Audit)
		if validateVerbose {
			formatAuditDetail(os.Stdout, result.Audit)
		}

		fmt.Fprintf(os.Stdout, "\n%d base orders, %d in scope, %d rollup groups, %d flagged records\n",
			result.Stats.BaseOrders, result.Stats.InScopeOrders, result.Stats.Groups, result.Stats.FlaggedRows)
		return nil
	},
}

// formatAuditSummary writes per-feed flag counts to w.
func formatAuditSummary(out io.Writer, audit []model.AuditRecord) {
	counts := make(map[string]int)
	for _, a := range audit {
		counts[a.Feed]++
	}

	feeds := make([]string, 0, len(counts))
	for f := range counts {
		feeds = append(feeds, f)
	}
	sort.Strings(feeds)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FEED\tFLAGGED")
	_, _ = fmt.Fprintln(w, "----\t-------")
	for _, f := range feeds {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", f, counts[f])
	}
	_ = w.Flush()
}

// formatAuditDetail writes one line per flagged record to w.
func formatAuditDetail(out io.Writer, audit []model.AuditRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "\nFEED\tRECORD\tORDER\tFIELD\tVALUE\tREASON")
	for _, a := range audit {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.Feed, a.RecordID, a.OrderUUID, a.Field, a.Value, a.Reason)
	}
	_ = w.Flush()
}

func init() {
	validateCmd.Flags().BoolVar(&validateVerbose, "verbose", false, "print every flagged record")
	rootCmd.AddCommand(validateCmd)
}
