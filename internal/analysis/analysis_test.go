package analysis

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockaudit/internal/dataset"
	"stockaudit/internal/storage/models"
)

func mergedFrame(t *testing.T) *dataset.Frame {
	t.Helper()
	f := dataset.New("Date", "Ticker", "sentiment", "daily_diff")
	rows := [][]string{
		{"2023-01-03", "AAPL", "positive", "1.5"},
		{"2023-01-04", "AAPL", "positive", "-0.5"},
		{"2023-01-05", "AAPL", "positive", "2"},
		{"2023-01-06", "AAPL", "negative", "-1"},
		{"2023-01-09", "AAPL", "neutral", "0.25"},
		{"2023-01-03", "TSLA", "positive", "3"},
		{"2023-01-04", "MSFT", "negative", "0.1"},
	}
	for _, r := range rows {
		require.NoError(t, f.Append(r...))
	}
	return f
}

func TestTickers(t *testing.T) {
	tickers, err := Tickers(mergedFrame(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "TSLA", "MSFT"}, tickers)
}

func TestAnalyze(t *testing.T) {
	s, err := Analyze(mergedFrame(t), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", s.Ticker)
	assert.Equal(t, 5, s.Rows)

	assert.Equal(t, 2, s.Positive.Hits)
	assert.Equal(t, 3, s.Positive.Total)
	require.NotNil(t, s.Positive.Percent)
	assert.InDelta(t, 66.67, *s.Positive.Percent, 0.001)

	assert.Equal(t, 1, s.Negative.Hits)
	require.NotNil(t, s.Negative.Percent)
	assert.Equal(t, 100.0, *s.Negative.Percent)

	require.Len(t, s.AverageReturn, 3)
	assert.Equal(t, "negative", s.AverageReturn[0].Sentiment)
	assert.True(t, s.AverageReturn[0].Average.Equal(decimal.NewFromInt(-1)))
	assert.Equal(t, "neutral", s.AverageReturn[1].Sentiment)
	assert.Equal(t, "positive", s.AverageReturn[2].Sentiment)
	assert.True(t, s.AverageReturn[2].Average.Equal(decimal.NewFromInt(1)))

	// Neutral rows have no place on the sentiment axis
	require.Len(t, s.Points, 4)
	assert.Equal(t, 1, s.Points[0].Sentiment)
	assert.Equal(t, -1, s.Points[3].Sentiment)

	require.NotNil(t, s.Data)
	rows, cols := s.Data.Shape()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 4, cols)
	assert.Equal(t, "2023-01-09", s.Data.Get(4, "Date"))
	unique, err := s.Data.Unique("Ticker")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, unique)
}

func TestAnalyze_EmptyGroupIsUndefined(t *testing.T) {
	s, err := Analyze(mergedFrame(t), "TSLA")
	require.NoError(t, err)

	require.NotNil(t, s.Positive.Percent)
	assert.Equal(t, 100.0, *s.Positive.Percent)
	assert.Nil(t, s.Negative.Percent)
	assert.Zero(t, s.Negative.Total)
}

func TestAnalyze_Errors(t *testing.T) {
	_, err := Analyze(mergedFrame(t), "NVDA")
	assert.True(t, errors.Is(err, ErrUnknownTicker))

	bad := dataset.New("Date", "Ticker", "sentiment", "daily_diff")
	require.NoError(t, bad.Append("2023-01-03", "AAPL", "positive", "n/a"))
	_, err = Analyze(bad, "AAPL")
	assert.ErrorContains(t, err, "daily_diff")

	_, err = Analyze(dataset.New("Ticker"), "AAPL")
	assert.ErrorContains(t, err, "lacks column")
}

func TestLoadMerged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "merged.csv")
	require.NoError(t, dataset.WriteCSVFile(path, mergedFrame(t)))

	f, err := LoadMerged(path)
	require.NoError(t, err)
	rows, _ := f.Shape()
	assert.Equal(t, 7, rows)

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("a,b\n1,2\n"), 0o600))
	_, err = LoadMerged(bad)
	assert.Error(t, err)
}

func TestLatestShapes(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []models.AuditEntry{
		{ID: 5, Timestamp: base.Add(4 * time.Second), DatasetName: "merged_df", RowCount: 4, ColumnCount: 12},
		{ID: 4, Timestamp: base.Add(3 * time.Second), DatasetName: "news_df", RowCount: 4, ColumnCount: 6},
		{ID: 3, Timestamp: base.Add(3 * time.Second), DatasetName: "news_df", RowCount: 5, ColumnCount: 6},
		{ID: 2, Timestamp: base.Add(1 * time.Second), DatasetName: "stock_df", RowCount: 5, ColumnCount: 7},
		{ID: 1, Timestamp: base, DatasetName: "stock_df", RowCount: 7, ColumnCount: 7},
	}

	latest := LatestShapes(entries)
	require.Len(t, latest, 3)
	assert.Equal(t, "stock_df", latest[0].DatasetName)
	assert.Equal(t, 5, latest[0].RowCount)
	assert.Equal(t, "news_df", latest[1].DatasetName)
	assert.Equal(t, int64(4), latest[1].ID)
	assert.Equal(t, "merged_df", latest[2].DatasetName)

	assert.Empty(t, LatestShapes(nil))
}
