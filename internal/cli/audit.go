package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"stockaudit/internal/analysis"
	"stockaudit/internal/config"
	"stockaudit/internal/dataset"
	"stockaudit/internal/report"
	"stockaudit/internal/storage"
)

type initCmd struct{}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "create the audit log if it does not exist" }
func (*initCmd) Usage() string {
	return `stockaudit init

  Creates the database file and the audit_log table. Running it again is harmless.
`
}
func (*initCmd) SetFlags(*flag.FlagSet) {}

func (*initCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withConfig(ctx, func(ctx context.Context, cfg *config.Config) error {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
		if err := storage.Initialize(ctx, location(cfg)); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "audit log ready at %s\n", cfg.Database.Path)
		return nil
	})
}

type resetCmd struct {
	yes bool
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "drop every audit entry and recreate an empty audit log" }
func (*resetCmd) Usage() string {
	return `stockaudit reset -yes

  Irreversibly deletes the whole audit history. Entry ids restart at 1.
`
}

func (c *resetCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "Confirm the irreversible reset.")
}

func (c *resetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.yes {
		fmt.Fprintln(os.Stderr, "reset deletes the whole audit history; pass -yes to confirm")
		return subcommands.ExitUsageError
	}
	return withConfig(ctx, func(ctx context.Context, cfg *config.Config) error {
		if err := storage.Reset(ctx, location(cfg)); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "audit log reset")
		return nil
	})
}

type recordCmd struct {
	dataset     string
	description string
	rows        int
	cols        int
	from        string
}

func (*recordCmd) Name() string     { return "record" }
func (*recordCmd) Synopsis() string { return "append one entry to the audit log" }
func (*recordCmd) Usage() string {
	return `stockaudit record -dataset <name> -description <text> (-rows <n> -cols <n> | -from <file.csv>)

  Records a provenance event. With -from the shape is read from the CSV file.
`
}

func (c *recordCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dataset, "dataset", "", "Dataset name, e.g. stock_df.")
	f.StringVar(&c.description, "description", "", "What happened to the dataset.")
	f.IntVar(&c.rows, "rows", 0, "Row count after the step.")
	f.IntVar(&c.cols, "cols", 0, "Column count after the step.")
	f.StringVar(&c.from, "from", "", "CSV file whose shape is recorded. Overrides -rows and -cols.")
}

func (c *recordCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.dataset == "" {
		fmt.Fprintln(os.Stderr, "-dataset is required")
		return subcommands.ExitUsageError
	}
	return withConfig(ctx, func(ctx context.Context, cfg *config.Config) error {
		var shape storage.Shaper = fixedShape{c.rows, c.cols}
		if c.from != "" {
			f, err := dataset.ReadCSVFile(c.from)
			if err != nil {
				return err
			}
			shape = f
		}
		entry, err := storage.RecordFromDataset(ctx, location(cfg), c.dataset, c.description, shape)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "recorded entry %d: %s (%d, %d)\n", entry.ID, entry.DatasetName, entry.RowCount, entry.ColumnCount)
		return nil
	})
}

type fixedShape struct{ rows, cols int }

func (s fixedShape) Shape() (int, int) { return s.rows, s.cols }

type listCmd struct {
	format string
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "display the audit trail, newest first" }
func (*listCmd) Usage() string {
	return `stockaudit list [-format md|csv]

  Prints every audit entry, newest first, followed by the latest shape of each dataset.
  The csv format matches the dashboard download.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "md", "Output format (md, csv).")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.format != "md" && c.format != "csv" {
		fmt.Fprintf(os.Stderr, "unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}
	return withConfig(ctx, func(ctx context.Context, cfg *config.Config) error {
		entries, err := storage.FetchAll(ctx, location(cfg))
		if errors.Is(err, storage.ErrSchemaMissing) {
			return fmt.Errorf("%w (run `stockaudit init` first)", err)
		}
		if err != nil {
			return err
		}
		if c.format == "csv" {
			return report.AuditCSV(stdout, entries)
		}
		printMarkdown(report.Markdown(report.Dashboard{
			Entries: entries,
			Shapes:  analysis.LatestShapes(entries),
		}))
		return nil
	})
}
