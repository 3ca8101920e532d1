// Package analysis computes the dashboard statistics over the merged dataset
// and the audit trail.
package analysis

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"stockaudit/internal/dataset"
)

// Sentiment labels as found in the news feed
const (
	Positive = "positive"
	Negative = "negative"
)

// requiredColumns must exist in a merged dataset
var requiredColumns = []string{"Ticker", "sentiment", "daily_diff", "Date"}

// ErrUnknownTicker is returned when the merged dataset has no row for a ticker
var ErrUnknownTicker = errors.New("unknown ticker")

var hundred = decimal.NewFromInt(100)

// HitRate is the share of news items whose sentiment matched the day's price move
type HitRate struct {
	Hits  int `json:"hits"`
	Total int `json:"total"`
	// Percent is nil when there is no news item with that sentiment
	Percent *float64 `json:"percent"`
}

func newHitRate(hits, total int) HitRate {
	h := HitRate{Hits: hits, Total: total}
	if total > 0 {
		pct := decimal.NewFromInt(int64(hits)).Div(decimal.NewFromInt(int64(total))).Mul(hundred).Round(2).InexactFloat64()
		h.Percent = &pct
	}
	return h
}

// SentimentReturn is the mean daily_diff of one sentiment group
type SentimentReturn struct {
	Sentiment string          `json:"sentiment"`
	Count     int             `json:"count"`
	Average   decimal.Decimal `json:"average"`
}

// Point is one scatter sample: +1 positive, -1 negative
type Point struct {
	Date      string          `json:"date"`
	Sentiment int             `json:"sentiment"`
	DailyDiff decimal.Decimal `json:"daily_diff"`
}

// Summary gathers every statistic shown for one ticker
type Summary struct {
	Ticker        string            `json:"ticker"`
	Rows          int               `json:"rows"`
	Positive      HitRate           `json:"positive_hit_rate"`
	Negative      HitRate           `json:"negative_hit_rate"`
	AverageReturn []SentimentReturn `json:"average_return"`
	Points        []Point           `json:"points"`
	// Data is the ticker's slice of the merged dataset
	Data *dataset.Frame `json:"data"`
}

// LoadMerged reads the merged dataset and checks it carries the analysed columns
func LoadMerged(path string) (*dataset.Frame, error) {
	f, err := dataset.ReadCSVFile(path)
	if err != nil {
		return nil, err
	}
	if err := checkColumns(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func checkColumns(f *dataset.Frame) error {
	for _, col := range requiredColumns {
		if f.Index(col) < 0 {
			return fmt.Errorf("merged dataset lacks column %q", col)
		}
	}
	return nil
}

// Tickers lists the tickers of the merged dataset in first-appearance order
func Tickers(f *dataset.Frame) ([]string, error) {
	return f.Unique("Ticker")
}

// Analyze computes the hit rates, the average return by sentiment and the
// scatter points for one ticker.
func Analyze(f *dataset.Frame, ticker string) (Summary, error) {
	if err := checkColumns(f); err != nil {
		return Summary{}, err
	}

	subset := f.Filter(func(r dataset.Row) bool { return r.Get("Ticker") == ticker })
	rows, _ := subset.Shape()
	if rows == 0 {
		return Summary{}, fmt.Errorf("%w: %s", ErrUnknownTicker, ticker)
	}

	var posHits, posTotal, negHits, negTotal int
	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	points := make([]Point, 0, rows)

	for r := 0; r < rows; r++ {
		sentiment := subset.Get(r, "sentiment")
		diff, err := decimal.NewFromString(subset.Get(r, "daily_diff"))
		if err != nil {
			return Summary{}, fmt.Errorf("row %d daily_diff: %w", r, err)
		}

		sums[sentiment] = sums[sentiment].Add(diff)
		counts[sentiment]++

		switch sentiment {
		case Positive:
			posTotal++
			if diff.IsPositive() {
				posHits++
			}
			points = append(points, Point{Date: subset.Get(r, "Date"), Sentiment: 1, DailyDiff: diff})
		case Negative:
			negTotal++
			if diff.IsNegative() {
				negHits++
			}
			points = append(points, Point{Date: subset.Get(r, "Date"), Sentiment: -1, DailyDiff: diff})
		}
	}

	averages := make([]SentimentReturn, 0, len(counts))
	for sentiment, n := range counts {
		averages = append(averages, SentimentReturn{
			Sentiment: sentiment,
			Count:     n,
			Average:   sums[sentiment].Div(decimal.NewFromInt(int64(n))),
		})
	}
	sort.Slice(averages, func(i, j int) bool { return averages[i].Sentiment < averages[j].Sentiment })

	return Summary{
		Ticker:        ticker,
		Rows:          rows,
		Positive:      newHitRate(posHits, posTotal),
		Negative:      newHitRate(negHits, negTotal),
		AverageReturn: averages,
		Points:        points,
		Data:          subset,
	}, nil
}
