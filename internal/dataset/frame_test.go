package dataset

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStocks(t *testing.T) *Frame {
	t.Helper()
	f, err := ReadCSV(strings.NewReader(`Date,Ticker,Open,Close
2023-01-03,AAPL,130.28,125.07
2023-01-03,MSFT,243.08,239.58
2023-01-04,AAPL,126.89,126.36
2023-01-03,AAPL,130.28,125.07
2023-01-05,TSLA,,110.34
`))
	require.NoError(t, err)
	return f
}

func TestShapeAndUnique(t *testing.T) {
	f := sampleStocks(t)

	rows, cols := f.Shape()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 4, cols)

	tickers, err := f.Unique("Ticker")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, tickers)

	_, err = f.Unique("Nope")
	assert.Error(t, err)
}

func TestAppend(t *testing.T) {
	f := New("a", "b")
	require.NoError(t, f.Append("1", "2"))
	assert.Error(t, f.Append("only-one"))
	assert.Equal(t, "2", f.Get(0, "b"))
	assert.Equal(t, "", f.Get(3, "b"))
}

func TestDropNA(t *testing.T) {
	f := sampleStocks(t)
	require.NoError(t, f.Append("2023-01-06", "MSFT", "NaN", "1"))

	clean := f.DropNA()
	rows, _ := clean.Shape()
	assert.Equal(t, 4, rows)
	for _, row := range clean.Rows {
		assert.NotContains(t, row, "")
	}

	// Source frame is untouched
	rows, _ = f.Shape()
	assert.Equal(t, 6, rows)
}

func TestIsMissing(t *testing.T) {
	for _, v := range []string{"", "  ", "NaN", "nan", "NaT"} {
		assert.True(t, IsMissing(v), v)
	}
	assert.False(t, IsMissing("0"))
}

func TestDropDuplicates(t *testing.T) {
	f := sampleStocks(t)

	byKey, err := f.DropDuplicates("Date", "Ticker")
	require.NoError(t, err)
	rows, _ := byKey.Shape()
	assert.Equal(t, 4, rows)

	whole, err := f.DropDuplicates()
	require.NoError(t, err)
	rows, _ = whole.Shape()
	assert.Equal(t, 4, rows)

	_, err = f.DropDuplicates("Missing")
	assert.Error(t, err)
}

func TestDropDuplicates_KeepsFirst(t *testing.T) {
	f := New("k", "v")
	require.NoError(t, f.Append("a", "first"))
	require.NoError(t, f.Append("a", "second"))

	out, err := f.DropDuplicates("k")
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "first", out.Rows[0][1])
}

func TestSelectAndDrop(t *testing.T) {
	f := sampleStocks(t)

	sel, err := f.Select("Ticker", "Close")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ticker", "Close"}, sel.Columns)
	assert.Equal(t, []string{"AAPL", "125.07"}, sel.Rows[0])

	dropped, err := f.Drop("Open")
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Ticker", "Close"}, dropped.Columns)

	_, err = f.Drop("Open", "Nope")
	assert.Error(t, err)
}

func TestFilter(t *testing.T) {
	f := sampleStocks(t)
	aapl := f.Filter(func(r Row) bool { return r.Get("Ticker") == "AAPL" })
	rows, _ := aapl.Shape()
	assert.Equal(t, 3, rows)
}

func TestAddColumn(t *testing.T) {
	f := New("a", "b")
	require.NoError(t, f.Append("1", "2"))

	out, err := f.AddColumn("sum", func(r Row) (string, error) { return r.Get("a") + r.Get("b"), nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "sum"}, out.Columns)
	assert.Equal(t, "12", out.Rows[0][2])

	out, err = out.AddColumn("a", func(Row) (string, error) { return "x", nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "sum"}, out.Columns)
	assert.Equal(t, "x", out.Rows[0][0])
	assert.Equal(t, "1", f.Rows[0][0], "source frame mutated")

	_, err = f.AddColumn("bad", func(Row) (string, error) { return "", errors.New("boom") })
	assert.ErrorContains(t, err, "row 0: boom")
}

func TestInnerJoin(t *testing.T) {
	news := New("title", "ticker", "Date")
	require.NoError(t, news.Append("iPhone", "AAPL", "2023-01-03"))
	require.NoError(t, news.Append("Cloud", "MSFT", "2023-01-09"))
	require.NoError(t, news.Append("Recall", "TSLA", "2023-01-05"))

	stock := New("Date", "Ticker", "Close")
	require.NoError(t, stock.Append("2023-01-03", "AAPL", "125.07"))
	require.NoError(t, stock.Append("2023-01-05", "TSLA", "110.34"))
	require.NoError(t, stock.Append("2023-01-05", "TSLA", "111.00"))

	merged, err := news.InnerJoin(stock, []string{"ticker", "Date"}, []string{"Ticker", "Date"})
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "ticker", "Date", "Ticker", "Close"}, merged.Columns)
	require.Len(t, merged.Rows, 3)
	assert.Equal(t, []string{"iPhone", "AAPL", "2023-01-03", "AAPL", "125.07"}, merged.Rows[0])
	assert.Equal(t, "111.00", merged.Rows[2][4])

	_, err = news.InnerJoin(stock, []string{"ticker"}, nil)
	assert.Error(t, err)

	clash := New("title", "x")
	_, err = news.InnerJoin(clash, []string{"ticker"}, []string{"x"})
	assert.ErrorContains(t, err, `column "title" present on both sides`)
}

func TestCSVRoundTripFile(t *testing.T) {
	f := sampleStocks(t)
	path := filepath.Join(t.TempDir(), "nested", "out.csv")

	require.NoError(t, WriteCSVFile(path, f))
	back, err := ReadCSVFile(path)
	require.NoError(t, err)
	assert.Equal(t, f.Columns, back.Columns)
	assert.Equal(t, f.Rows, back.Rows)
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorContains(t, err, "missing header")

	_, err = ReadCSV(strings.NewReader("a,b\n1,2,3\n"))
	assert.Error(t, err)

	_, err = ReadCSVFile(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestWriteCSV_QuotesCells(t *testing.T) {
	f := New("title")
	require.NoError(t, f.Append(`Apple, Inc. "beats"`))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, f))
	assert.Equal(t, "title\n\"Apple, Inc. \"\"beats\"\"\"\n", buf.String())
}
