package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"stockaudit/internal/dataset"
)

// newsColumns are the columns kept from the exploded news feed
var newsColumns = []string{"published_utc", "description", "title", "ticker", "sentiment", "sentiment_reasoning"}

// Article is one item of a Polygon-style news feed
type Article struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	PublishedUTC string    `json:"published_utc"`
	ArticleURL   string    `json:"article_url"`
	Tickers      []string  `json:"tickers"`
	Description  *string   `json:"description"`
	Keywords     []string  `json:"keywords"`
	Insights     []Insight `json:"insights"`
}

// Insight is the per-ticker sentiment attached to an article
type Insight struct {
	Ticker             string `json:"ticker"`
	Sentiment          string `json:"sentiment"`
	SentimentReasoning string `json:"sentiment_reasoning"`
}

// DecodeNews accepts either a bare JSON array of articles or an API
// response object carrying them under "results".
func DecodeNews(data []byte) ([]Article, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var articles []Article
		if err := json.Unmarshal(data, &articles); err != nil {
			return nil, fmt.Errorf("decode news: %w", err)
		}
		return articles, nil
	}

	var envelope struct {
		Results []Article `json:"results"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode news: %w", err)
	}
	return envelope.Results, nil
}

// ReadNewsFile reads and decodes a news feed file
func ReadNewsFile(path string) ([]Article, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Trusted file path input
	if err != nil {
		return nil, err
	}
	return DecodeNews(data)
}

// ExplodeNews flattens articles into one row per insight. An article
// without insights still yields one row, with empty insight cells.
func ExplodeNews(articles []Article) (*dataset.Frame, error) {
	f := dataset.New(newsColumns...)
	for _, a := range articles {
		description := ""
		if a.Description != nil {
			description = *a.Description
		}

		insights := a.Insights
		if len(insights) == 0 {
			insights = []Insight{{}}
		}
		for _, in := range insights {
			if err := f.Append(
				a.PublishedUTC,
				description,
				a.Title,
				in.Ticker,
				in.Sentiment,
				in.SentimentReasoning,
			); err != nil {
				return nil, fmt.Errorf("article %s: %w", a.ID, err)
			}
		}
	}
	return f, nil
}
