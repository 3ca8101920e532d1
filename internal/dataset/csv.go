package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ReadCSV reads a frame whose first record is the header
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}

	f := New(header...)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		f.Rows = append(f.Rows, record)
	}
	return f, nil
}

// WriteCSV writes the header followed by every row
func WriteCSV(w io.Writer, f *Frame) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(f.Columns); err != nil {
		return err
	}
	if err := writer.WriteAll(f.Rows); err != nil {
		return err
	}
	return writer.Error()
}

// ReadCSVFile reads a frame from path
func ReadCSVFile(path string) (*Frame, error) {
	file, err := os.Open(path) //nolint:gosec // Trusted file path input
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// WriteCSVFile writes f to path, creating parent directories as needed
func WriteCSVFile(path string, f *Frame) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	file, err := os.Create(path) //nolint:gosec // Trusted file path input
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return WriteCSV(file, f)
}
