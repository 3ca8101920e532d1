package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"stockaudit/internal/analysis"
	"stockaudit/internal/api"
	"stockaudit/internal/config"
	"stockaudit/internal/logger"
	"stockaudit/internal/report"
	"stockaudit/internal/storage"
)

type serveCmd struct{}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the dashboard API" }
func (*serveCmd) Usage() string {
	return `stockaudit serve

  Serves the dashboard on server.host:server.port until SIGINT or SIGTERM.
`
}
func (*serveCmd) SetFlags(*flag.FlagSet) {}

func (*serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withConfig(ctx, serve)
}

func serve(_ context.Context, cfg *config.Config) error {
	logger.Info("Starting stockaudit dashboard", "log_level", config.GetLogLevel())

	// The audit panels keep working without a merged dataset
	merged, err := analysis.LoadMerged(cfg.Data.MergedPath)
	if err != nil {
		logger.Warn("Merged dataset unavailable", "path", cfg.Data.MergedPath, "error", err)
		merged = nil
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(*cfg, location(cfg), merged),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("start server: %w", err)
	case <-quit:
	}

	shutdownTimeout := 30 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("Initiating graceful shutdown", "timeout", shutdownTimeout.String())
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err, "timeout", shutdownTimeout.String())
		return err
	}

	logger.Info("Server stopped")
	return nil
}

type reportCmd struct {
	ticker string
	raw    bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "print the dashboard for one ticker" }
func (*reportCmd) Usage() string {
	return `stockaudit report [-ticker <symbol>] [-raw]

  Renders hit rates, average return per sentiment, the sentiment vs price
  change points and the audit trail. -raw adds the ticker's merged rows.
  Without -ticker the first ticker of the merged dataset is used.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "ticker", "", "Ticker to analyse.")
	f.BoolVar(&c.raw, "raw", false, "Include the ticker's rows of the merged dataset.")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withConfig(ctx, func(ctx context.Context, cfg *config.Config) error {
		md, err := c.dashboard(ctx, cfg)
		if err != nil {
			return err
		}
		printMarkdown(md)
		return nil
	})
}

func (c *reportCmd) dashboard(ctx context.Context, cfg *config.Config) (string, error) {
	merged, err := analysis.LoadMerged(cfg.Data.MergedPath)
	if err != nil {
		return "", err
	}

	ticker := c.ticker
	if ticker == "" {
		tickers, err := analysis.Tickers(merged)
		if err != nil {
			return "", err
		}
		if len(tickers) == 0 {
			return "", fmt.Errorf("%s has no tickers", cfg.Data.MergedPath)
		}
		ticker = tickers[0]
	}

	summary, err := analysis.Analyze(merged, ticker)
	if err != nil {
		return "", err
	}

	d := report.Dashboard{Summary: &summary, RawData: c.raw}
	// An unavailable audit log only hides the audit sections
	if entries, err := storage.FetchAll(ctx, location(cfg)); err != nil {
		logger.Warn("Audit log unavailable", "error", err)
	} else {
		d.Entries = entries
		d.Shapes = analysis.LatestShapes(entries)
	}
	return report.Markdown(d), nil
}
