// Package cli implements the stockaudit command line application.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"stockaudit/internal/config"
	"stockaudit/internal/logger"
	"stockaudit/internal/storage"
)

// Register the subcommands.
// A main package will call Register() and then Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&initCmd{}, "audit")
	c.Register(&resetCmd{}, "audit")
	c.Register(&recordCmd{}, "audit")
	c.Register(&listCmd{}, "audit")

	c.Register(&runCmd{}, "pipeline")

	c.Register(&serveCmd{}, "dashboard")
	c.Register(&reportCmd{}, "dashboard")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configPath = flag.String("config", "", "Path to the YAML configuration file (defaults and STOCKAUDIT_* variables apply when empty)")

// stdout receives command output; tests replace it.
var stdout io.Writer = os.Stdout

// loadConfig loads the configuration and initializes the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logger.Init(config.GetLogLevel())
	return cfg, nil
}

func location(cfg *config.Config) storage.Location {
	return storage.NewLocation(cfg.Database.Path)
}

// printMarkdown renders md for the terminal, falling back to the raw text.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	fmt.Fprint(stdout, out)
}

// withConfig is the common prologue of every command.
func withConfig(ctx context.Context, run func(context.Context, *config.Config) error) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := run(ctx, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
