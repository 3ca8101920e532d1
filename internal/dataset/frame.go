// Package dataset provides a small in-memory tabular structure used by the
// pipeline stages. Cells are kept as strings; an empty cell (or "NaN") is missing.
package dataset

import (
	"fmt"
	"strings"
)

// Frame is a column-named table of string cells
type Frame struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// New returns an empty frame with the given columns
func New(columns ...string) *Frame {
	return &Frame{Columns: append([]string(nil), columns...)}
}

// Shape returns the number of rows and columns
func (f *Frame) Shape() (rows, cols int) {
	return len(f.Rows), len(f.Columns)
}

// Index returns the position of col, or -1
func (f *Frame) Index(col string) int {
	for i, c := range f.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// mustIndex is Index with an error for unknown columns
func (f *Frame) mustIndex(col string) (int, error) {
	i := f.Index(col)
	if i < 0 {
		return -1, fmt.Errorf("unknown column %q", col)
	}
	return i, nil
}

// Append adds a row. It must have one cell per column.
func (f *Frame) Append(row ...string) error {
	if len(row) != len(f.Columns) {
		return fmt.Errorf("row has %d cells, frame has %d columns", len(row), len(f.Columns))
	}
	f.Rows = append(f.Rows, append([]string(nil), row...))
	return nil
}

// Get returns the cell of row r in column col
func (f *Frame) Get(r int, col string) string {
	i := f.Index(col)
	if i < 0 || r < 0 || r >= len(f.Rows) {
		return ""
	}
	return f.Rows[r][i]
}

// Column returns a copy of every value in col
func (f *Frame) Column(col string) ([]string, error) {
	i, err := f.mustIndex(col)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(f.Rows))
	for r, row := range f.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// Unique returns the distinct values of col in first-appearance order
func (f *Frame) Unique(col string) ([]string, error) {
	values, err := f.Column(col)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0)
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out, nil
}

// Row is a read-only view of one row, addressed by column name
type Row struct {
	frame *Frame
	cells []string
}

// Get returns the cell in col, or "" for unknown columns
func (r Row) Get(col string) string {
	i := r.frame.Index(col)
	if i < 0 {
		return ""
	}
	return r.cells[i]
}

// Filter returns a new frame with the rows for which keep returns true
func (f *Frame) Filter(keep func(Row) bool) *Frame {
	out := New(f.Columns...)
	for _, row := range f.Rows {
		if keep(Row{frame: f, cells: row}) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// IsMissing reports whether a cell counts as a missing value
func IsMissing(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "nan") || strings.EqualFold(v, "nat")
}

// DropNA returns a new frame without rows holding any missing value
func (f *Frame) DropNA() *Frame {
	return f.Filter(func(r Row) bool {
		for _, v := range r.cells {
			if IsMissing(v) {
				return false
			}
		}
		return true
	})
}

// DropDuplicates keeps the first row for each distinct combination of keys.
// With no keys every column takes part.
func (f *Frame) DropDuplicates(keys ...string) (*Frame, error) {
	idx := make([]int, 0, len(keys))
	for _, k := range keys {
		i, err := f.mustIndex(k)
		if err != nil {
			return nil, err
		}
		idx = append(idx, i)
	}
	if len(idx) == 0 {
		for i := range f.Columns {
			idx = append(idx, i)
		}
	}

	seen := make(map[string]bool, len(f.Rows))
	out := New(f.Columns...)
	for _, row := range f.Rows {
		k := rowKey(row, idx)
		if seen[k] {
			continue
		}
		seen[k] = true
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// Select returns a new frame with only cols, in that order
func (f *Frame) Select(cols ...string) (*Frame, error) {
	idx := make([]int, len(cols))
	for j, c := range cols {
		i, err := f.mustIndex(c)
		if err != nil {
			return nil, err
		}
		idx[j] = i
	}

	out := New(cols...)
	out.Rows = make([][]string, len(f.Rows))
	for r, row := range f.Rows {
		cells := make([]string, len(idx))
		for j, i := range idx {
			cells[j] = row[i]
		}
		out.Rows[r] = cells
	}
	return out, nil
}

// Drop returns a new frame without cols
func (f *Frame) Drop(cols ...string) (*Frame, error) {
	drop := make(map[string]bool, len(cols))
	for _, c := range cols {
		if _, err := f.mustIndex(c); err != nil {
			return nil, err
		}
		drop[c] = true
	}

	keep := make([]string, 0, len(f.Columns))
	for _, c := range f.Columns {
		if !drop[c] {
			keep = append(keep, c)
		}
	}
	return f.Select(keep...)
}

// AddColumn returns a new frame with col appended, computed per row by fn.
// An existing column with the same name is overwritten in place.
func (f *Frame) AddColumn(col string, fn func(Row) (string, error)) (*Frame, error) {
	pos := f.Index(col)
	out := New(f.Columns...)
	if pos < 0 {
		out.Columns = append(out.Columns, col)
	}

	out.Rows = make([][]string, len(f.Rows))
	for r, row := range f.Rows {
		v, err := fn(Row{frame: f, cells: row})
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r, err)
		}
		cells := append(make([]string, 0, len(out.Columns)), row...)
		if pos < 0 {
			cells = append(cells, v)
		} else {
			cells[pos] = v
		}
		out.Rows[r] = cells
	}
	return out, nil
}

// InnerJoin matches rows of f and right on leftKeys[i] == rightKeys[i].
// The result holds every left column followed by the right columns, except
// right key columns whose name equals the paired left key. Left row order is kept.
func (f *Frame) InnerJoin(right *Frame, leftKeys, rightKeys []string) (*Frame, error) {
	if len(leftKeys) != len(rightKeys) || len(leftKeys) == 0 {
		return nil, fmt.Errorf("join needs matching key lists, got %d and %d", len(leftKeys), len(rightKeys))
	}

	lidx := make([]int, len(leftKeys))
	ridx := make([]int, len(rightKeys))
	shared := make(map[int]bool)
	for i := range leftKeys {
		l, err := f.mustIndex(leftKeys[i])
		if err != nil {
			return nil, fmt.Errorf("left: %w", err)
		}
		r, err := right.mustIndex(rightKeys[i])
		if err != nil {
			return nil, fmt.Errorf("right: %w", err)
		}
		lidx[i], ridx[i] = l, r
		if leftKeys[i] == rightKeys[i] {
			shared[r] = true
		}
	}

	columns := append([]string(nil), f.Columns...)
	rightCols := make([]int, 0, len(right.Columns))
	for i, c := range right.Columns {
		if shared[i] {
			continue
		}
		if f.Index(c) >= 0 {
			return nil, fmt.Errorf("column %q present on both sides", c)
		}
		columns = append(columns, c)
		rightCols = append(rightCols, i)
	}

	lookup := make(map[string][]int, len(right.Rows))
	for r, row := range right.Rows {
		k := rowKey(row, ridx)
		lookup[k] = append(lookup[k], r)
	}

	out := New(columns...)
	for _, lrow := range f.Rows {
		for _, r := range lookup[rowKey(lrow, lidx)] {
			cells := append(make([]string, 0, len(columns)), lrow...)
			for _, i := range rightCols {
				cells = append(cells, right.Rows[r][i])
			}
			out.Rows = append(out.Rows, cells)
		}
	}
	return out, nil
}

func rowKey(row []string, idx []int) string {
	parts := make([]string, len(idx))
	for j, i := range idx {
		parts[j] = row[i]
	}
	return strings.Join(parts, "\x1f")
}
