package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeNews_ArrayAndEnvelope(t *testing.T) {
	articles, err := DecodeNews([]byte(`[{"id":"a","title":"t","insights":[]}]`))
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "a", articles[0].ID)

	articles, err = DecodeNews([]byte(`{"status":"OK","results":[{"id":"b"},{"id":"c"}]}`))
	require.NoError(t, err)
	assert.Len(t, articles, 2)

	_, err = DecodeNews([]byte(`{not json`))
	assert.Error(t, err)
}

func TestExplodeNews(t *testing.T) {
	desc := "d"
	f, err := ExplodeNews([]Article{
		{Title: "two", PublishedUTC: "2023-01-03T00:00:00Z", Description: &desc, Insights: []Insight{
			{Ticker: "AAPL", Sentiment: "positive"},
			{Ticker: "MSFT", Sentiment: "negative"},
		}},
		{Title: "none", PublishedUTC: "2023-01-04T00:00:00Z"},
	})
	require.NoError(t, err)

	rows, cols := f.Shape()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 6, cols)
	assert.Equal(t, "MSFT", f.Get(1, "ticker"))
	assert.Equal(t, "", f.Get(2, "ticker"))
	assert.Equal(t, "", f.Get(2, "description"))
}

func TestNormalizeDate(t *testing.T) {
	tests := map[string]string{
		"2023-01-03":                "2023-01-03",
		"2023-01-03T14:00:00Z":      "2023-01-03",
		"2023-01-03 00:00:00-05:00": "2023-01-03",
		"2023-01-03 09:30:00":       "2023-01-03",
		"01/03/2023":                "2023-01-03",
	}
	for in, want := range tests {
		got, err := NormalizeDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := NormalizeDate("03.01.2023")
	assert.Error(t, err)
}
