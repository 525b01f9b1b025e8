package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mealcart/carecost-cli/internal/config"
	"github.com/mealcart/carecost-cli/internal/integrate"
	"github.com/mealcart/carecost-cli/internal/pipeline"
	"github.com/mealcart/carecost-cli/internal/rollup"
	"github.com/mealcart/carecost-cli/internal/store"
	"github.com/mealcart/carecost-cli/internal/taxonomy"
)

var (
	runStart string
	runEnd   string
	runDays  int
	runScope string
	runDims  []string
	runFeeds string
	runTax   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run attribution and rollup for one date window",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		opts, err := buildRunOptions()
		if err != nil {
			return err
		}

		result, err := pipeline.Run(ctx, opts)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		if err := writeJSON(cfg.Output.RowsPath, result.Rows); err != nil {
			return err
		}
		if err := writeJSON(cfg.Output.AuditPath, result.Audit); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
			statsJSON, err := json.Marshal(result.Stats)
			if err != nil {
				return eris.Wrap(err, "marshal stats")
			}
			err = st.SaveRun(ctx, store.RunRecord{
				ID:          result.RunID,
				WindowStart: result.Window.Start,
				WindowEnd:   result.Window.End,
				Scope:       string(result.Scope),
				Dimensions:  opts.Dimensions,
				Stats:       statsJSON,
			}, result.Rows, result.Audit)
			if err != nil {
				return eris.Wrap(err, "save run")
			}
			zap.L().Info("run persisted", zap.String("run_id", result.RunID))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// buildRunOptions merges flags over config into concrete pipeline options.
func buildRunOptions() (pipeline.Options, error) {
	winCfg := cfg.Window
	if runStart != "" || runEnd != "" {
		winCfg.Start, winCfg.End = runStart, runEnd
	} else if runDays > 0 {
		winCfg = config.WindowConfig{RollingDays: runDays}
	}
	window, err := winCfg.Resolve(time.Now())
	if err != nil {
		return pipeline.Options{}, err
	}

	scopeStr := cfg.Scope
	if runScope != "" {
		scopeStr = runScope
	}
	scope, err := integrate.ParseScope(scopeStr)
	if err != nil {
		return pipeline.Options{}, err
	}

	taxPath := cfg.Taxonomy.Path
	if runTax != "" {
		taxPath = runTax
	}
	tables, err := taxonomy.Load(taxPath)
	if err != nil {
		return pipeline.Options{}, err
	}

	dims := cfg.Rollup.Dimensions
	if len(runDims) > 0 {
		dims = runDims
	}
	if err := rollup.ValidateDimensions(dims); err != nil {
		return pipeline.Options{}, err
	}

	feedsDir := cfg.Feeds.Dir
	if runFeeds != "" {
		feedsDir = runFeeds
	}

	return pipeline.Options{
		Inputs:     pipeline.InputsFromDir(feedsDir),
		Window:     window,
		Scope:      scope,
		Tables:     tables,
		Dimensions: dims,
	}, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrapf(err, "encode %s", path)
	}
	return nil
}

func init() {
	runCmd.Flags().StringVar(&runStart, "start", "", "window start date (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&runEnd, "end", "", "window end date (YYYY-MM-DD)")
	runCmd.Flags().IntVar(&runDays, "days", 0, "rolling window ending yesterday")
	runCmd.Flags().StringVar(&runScope, "scope", "", "order scope: ghd or all")
	runCmd.Flags().StringSliceVar(&runDims, "dimensions", nil, "rollup dimension tuple")
	runCmd.Flags().StringVar(&runFeeds, "feeds", "", "feed directory")
	runCmd.Flags().StringVar(&runTax, "taxonomy", "", "taxonomy file path")
	rootCmd.AddCommand(runCmd)
}
