package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"stockaudit/internal/config"
	"stockaudit/internal/pipeline"
)

type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run the ingestion pipeline and write the merged dataset" }
func (*runCmd) Usage() string {
	return `stockaudit run

  Loads the stock and news files, cleans and merges them, and records every
  step in the audit log. The first failing step stops the run.
`
}
func (*runCmd) SetFlags(*flag.FlagSet) {}

func (*runCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withConfig(ctx, func(ctx context.Context, cfg *config.Config) error {
		p := pipeline.New(cfg.Pipeline.Tickers, pipeline.AuditRecorder{Location: location(cfg)})
		res, err := p.Run(ctx, cfg.Data)
		if err != nil {
			return err
		}
		rows, cols := res.Merged.Shape()
		fmt.Fprintf(stdout, "merged dataset written to %s (%d, %d)\n", cfg.Data.MergedPath, rows, cols)
		return nil
	})
}
