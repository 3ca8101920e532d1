// Package pipeline ingests the stock and news datasets, cleans them, merges
// them and records every resulting dataset version through a Recorder.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stockaudit/internal/config"
	"stockaudit/internal/dataset"
	"stockaudit/internal/logger"
	"stockaudit/internal/metrics"
)

// Dataset names used in the audit trail
const (
	StockDataset  = "stock_df"
	NewsDataset   = "news_df"
	MergedDataset = "merged_df"
)

// stockColumns must all be present in the price file
var stockColumns = []string{"Date", "Ticker", "Open", "High", "Low", "Close", "Volume"}

// positiveColumns must hold strictly positive numbers after cleaning
var positiveColumns = []string{"Close", "High", "Low", "Open", "Volume"}

// Pipeline runs the stages over one pair of input datasets
type Pipeline struct {
	recorder Recorder
	tickers  map[string]bool
}

// Result holds the final version of every dataset
type Result struct {
	Stock  *dataset.Frame
	News   *dataset.Frame
	Merged *dataset.Frame
}

// New creates a pipeline keeping only the given tickers
func New(tickers []string, recorder Recorder) *Pipeline {
	keep := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		keep[t] = true
	}
	return &Pipeline{recorder: recorder, tickers: keep}
}

// record hands a dataset version to the recorder and counts the stage
func (p *Pipeline) record(ctx context.Context, stage, name, description string, f *dataset.Frame) error {
	log := logger.With("stage", stage, "dataset", name)

	if err := p.recorder.RecordFromDataset(ctx, name, description, f); err != nil {
		metrics.PipelineStages.WithLabelValues(stage, "error").Inc()
		log.Error("Pipeline stage could not be audited", "error", err)
		return fmt.Errorf("%s: audit %s: %w", stage, name, err)
	}

	rows, cols := f.Shape()
	metrics.PipelineStages.WithLabelValues(stage, "ok").Inc()
	log.Info("Pipeline stage finished", "rows", rows, "columns", cols)
	return nil
}

func (p *Pipeline) keepTickers(f *dataset.Frame, col string) *dataset.Frame {
	return f.Filter(func(r dataset.Row) bool { return p.tickers[r.Get(col)] })
}

// LoadStocks reads the price file and keeps the configured tickers
func (p *Pipeline) LoadStocks(ctx context.Context, path string) (*dataset.Frame, error) {
	raw, err := dataset.ReadCSVFile(path)
	if err != nil {
		return nil, fmt.Errorf("load stocks: %w", err)
	}
	for _, col := range stockColumns {
		if raw.Index(col) < 0 {
			return nil, fmt.Errorf("load stocks: %s: missing column %q", path, col)
		}
	}

	stock := p.keepTickers(raw, "Ticker")
	if err := p.record(ctx, "load_stocks", StockDataset, "Read in stock_df from price file "+path, stock); err != nil {
		return nil, err
	}
	return stock, nil
}

// LoadNews reads the news feed, explodes insights and keeps the configured tickers
func (p *Pipeline) LoadNews(ctx context.Context, path string) (*dataset.Frame, error) {
	articles, err := ReadNewsFile(path)
	if err != nil {
		return nil, fmt.Errorf("load news: %w", err)
	}

	exploded, err := ExplodeNews(articles)
	if err != nil {
		return nil, fmt.Errorf("load news: %w", err)
	}

	news := p.keepTickers(exploded, "ticker")
	if err := p.record(ctx, "load_news", NewsDataset, "Read in news_df from raw JSON file", news); err != nil {
		return nil, err
	}
	return news, nil
}

// CleanNews drops rows with missing values
func (p *Pipeline) CleanNews(ctx context.Context, news *dataset.Frame) (*dataset.Frame, error) {
	clean := news.DropNA()
	if err := p.record(ctx, "clean_news", NewsDataset, "Remove all NaN value and invalid values (if any)", clean); err != nil {
		return nil, err
	}
	return clean, nil
}

// CleanStocks drops rows with missing values or non-positive prices and volume
func (p *Pipeline) CleanStocks(ctx context.Context, stock *dataset.Frame) (*dataset.Frame, error) {
	clean := stock.DropNA().Filter(func(r dataset.Row) bool {
		for _, col := range positiveColumns {
			v, err := decimal.NewFromString(r.Get(col))
			if err != nil || !v.IsPositive() {
				return false
			}
		}
		return true
	})
	if err := p.record(ctx, "clean_stocks", StockDataset, "Remove all NaN value and invalid values (if any)", clean); err != nil {
		return nil, err
	}
	return clean, nil
}

// NormalizeDates rewrites the stock Date column as calendar dates and derives
// the news Date column from published_utc, which is then dropped.
func (p *Pipeline) NormalizeDates(ctx context.Context, stock, news *dataset.Frame) (*dataset.Frame, *dataset.Frame, error) {
	stock, err := stock.AddColumn("Date", func(r dataset.Row) (string, error) {
		return NormalizeDate(r.Get("Date"))
	})
	if err != nil {
		return nil, nil, fmt.Errorf("normalize stock dates: %w", err)
	}

	news, err = news.AddColumn("Date", func(r dataset.Row) (string, error) {
		return NormalizeDate(r.Get("published_utc"))
	})
	if err != nil {
		return nil, nil, fmt.Errorf("normalize news dates: %w", err)
	}
	if news, err = news.Drop("published_utc"); err != nil {
		return nil, nil, fmt.Errorf("normalize news dates: %w", err)
	}

	if err := p.record(ctx, "normalize_dates", NewsDataset,
		"Add Date column from published_utc to match the date format of stock_df", news); err != nil {
		return nil, nil, err
	}
	return stock, news, nil
}

// Dedupe keeps one stock row per (Date, Ticker) and one news item per (Date, ticker)
func (p *Pipeline) Dedupe(ctx context.Context, stock, news *dataset.Frame) (*dataset.Frame, *dataset.Frame, error) {
	stock, err := stock.DropDuplicates("Date", "Ticker")
	if err != nil {
		return nil, nil, fmt.Errorf("dedupe stocks: %w", err)
	}
	if err := p.record(ctx, "dedupe_stocks", StockDataset, "Remove duplicate rows (if any)", stock); err != nil {
		return nil, nil, err
	}

	news, err = news.DropDuplicates("Date", "ticker")
	if err != nil {
		return nil, nil, fmt.Errorf("dedupe news: %w", err)
	}
	if err := p.record(ctx, "dedupe_news", NewsDataset,
		"Remove duplicate rows (if any) to just keep one news for each day for simplicity", news); err != nil {
		return nil, nil, err
	}
	return stock, news, nil
}

// Merge inner-joins news and prices on ticker and date and adds daily_diff = Close - Open
func (p *Pipeline) Merge(ctx context.Context, stock, news *dataset.Frame) (*dataset.Frame, error) {
	merged, err := news.InnerJoin(stock, []string{"ticker", "Date"}, []string{"Ticker", "Date"})
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	merged, err = merged.AddColumn("daily_diff", func(r dataset.Row) (string, error) {
		closing, err := decimal.NewFromString(r.Get("Close"))
		if err != nil {
			return "", fmt.Errorf("close: %w", err)
		}
		opening, err := decimal.NewFromString(r.Get("Open"))
		if err != nil {
			return "", fmt.Errorf("open: %w", err)
		}
		return closing.Sub(opening).String(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	if merged, err = merged.Drop("ticker"); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	if err := p.record(ctx, "merge", MergedDataset,
		"Create merged_df by merging stock_df and news_df, also create a column daily_diff to capture daily price movement", merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Run executes every stage in order and writes the merged dataset to data.MergedPath.
// The first failing stage halts the run.
func (p *Pipeline) Run(ctx context.Context, data config.DataConfig) (*Result, error) {
	start := time.Now()

	stock, err := p.LoadStocks(ctx, data.StockPath)
	if err != nil {
		return nil, err
	}
	news, err := p.LoadNews(ctx, data.NewsPath)
	if err != nil {
		return nil, err
	}

	if news, err = p.CleanNews(ctx, news); err != nil {
		return nil, err
	}
	if stock, err = p.CleanStocks(ctx, stock); err != nil {
		return nil, err
	}
	if stock, news, err = p.NormalizeDates(ctx, stock, news); err != nil {
		return nil, err
	}
	if stock, news, err = p.Dedupe(ctx, stock, news); err != nil {
		return nil, err
	}

	merged, err := p.Merge(ctx, stock, news)
	if err != nil {
		return nil, err
	}

	if err := dataset.WriteCSVFile(data.MergedPath, merged); err != nil {
		return nil, fmt.Errorf("write merged dataset: %w", err)
	}

	rows, cols := merged.Shape()
	logger.Info("Pipeline finished",
		"merged_path", data.MergedPath,
		"rows", rows,
		"columns", cols,
		"duration", time.Since(start).String())

	return &Result{Stock: stock, News: news, Merged: merged}, nil
}
