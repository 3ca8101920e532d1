package storage

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sort"
	"time"

	"stockaudit/internal/logger"
	"stockaudit/internal/metrics"
	"stockaudit/internal/storage/models"

	_ "github.com/mattn/go-sqlite3"
)

// TimestampFormat is the layout timestamps are persisted with. It is fixed
// width and always UTC so that text ordering in SQLite is chronological.
const TimestampFormat = "2006-01-02T15:04:05.000000Z07:00"

// legacyTimestampFormats are accepted when reading rows written by older tools
var legacyTimestampFormats = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// now is the store clock; tests replace it through export_test.go
var now = time.Now

const createTableSQL = `
CREATE TABLE IF NOT EXISTS audit_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	dataset_name TEXT NOT NULL,
	description TEXT NOT NULL,
	row_count INTEGER NOT NULL,
	column_count INTEGER NOT NULL
)`

// selectEntriesSQL orders by text as a first pass; rows written in another
// timestamp layout are put in place by sortNewestFirst after parsing.
const selectEntriesSQL = `SELECT id, timestamp, dataset_name, description, row_count, column_count
FROM audit_log ORDER BY timestamp DESC, id DESC`

// Shaper is anything exposing a (rows, columns) shape at call time
type Shaper interface {
	Shape() (rows, cols int)
}

// withDB opens a dedicated connection for one operation and releases it on every exit path
func withDB(ctx context.Context, loc Location, op string, create bool, fn func(*sql.DB) error) (err error) {
	defer func() {
		if err != nil {
			err = fail(op, loc, err)
		}
	}()

	if !create && loc.missing() {
		return ErrSchemaMissing
	}

	db, err := sql.Open(loc.driver(), loc.dsn(create))
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Warn("Failed to close audit store", "op", op, "path", loc.Path, "error", cerr)
		}
	}()

	if err = db.PingContext(ctx); err != nil {
		return err
	}

	return fn(db)
}

// Initialize provisions the audit_log table. It is idempotent and never
// touches existing entries.
func Initialize(ctx context.Context, loc Location) error {
	err := withDB(ctx, loc, "initialize", true, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, createTableSQL)
		return err
	})
	if err != nil {
		return err
	}

	logger.Debug("Audit store initialized", "path", loc.Path)
	return nil
}

// Reset drops every entry together with the schema and provisions an empty
// schema again. It is irreversible.
func Reset(ctx context.Context, loc Location) error {
	err := withDB(ctx, loc, "reset", true, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback() //nolint:errcheck // no-op after commit

		if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS audit_log`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, createTableSQL); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return err
	}

	logger.Warn("Audit store reset", "path", loc.Path)
	return nil
}

// Record appends one entry. The timestamp and id are assigned here, never by
// the caller, and the entry is durable once Record returns.
func Record(ctx context.Context, loc Location, datasetName, description string, rowCount, columnCount int) (models.AuditEntry, error) {
	if rowCount < 0 || columnCount < 0 {
		return models.AuditEntry{}, fail("record", loc,
			fmt.Errorf("%w: %d rows, %d columns", ErrInvalidShape, rowCount, columnCount))
	}

	entry := models.AuditEntry{
		Timestamp:   now().UTC().Truncate(time.Microsecond),
		DatasetName: datasetName,
		Description: description,
		RowCount:    rowCount,
		ColumnCount: columnCount,
	}

	err := withDB(ctx, loc, "record", false, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx,
			`INSERT INTO audit_log (timestamp, dataset_name, description, row_count, column_count) VALUES (?, ?, ?, ?, ?)`,
			entry.Timestamp.Format(TimestampFormat),
			entry.DatasetName,
			entry.Description,
			entry.RowCount,
			entry.ColumnCount,
		)
		if err != nil {
			return err
		}
		entry.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return models.AuditEntry{}, err
	}

	metrics.AuditEntriesRecorded.WithLabelValues(datasetName).Inc()
	logger.Info("Audit entry recorded",
		"id", entry.ID,
		"dataset", datasetName,
		"rows", rowCount,
		"columns", columnCount)

	return entry, nil
}

// RecordFromDataset records the dataset's current shape under datasetName
func RecordFromDataset(ctx context.Context, loc Location, datasetName, description string, ds Shaper) (models.AuditEntry, error) {
	if isNil(ds) {
		return models.AuditEntry{}, fail("record", loc, fmt.Errorf("%w: no dataset for %q", ErrInvalidShape, datasetName))
	}
	rows, cols := ds.Shape()
	return Record(ctx, loc, datasetName, description, rows, cols)
}

// isNil catches both a nil interface and a typed nil pointer
func isNil(ds Shaper) bool {
	if ds == nil {
		return true
	}
	v := reflect.ValueOf(ds)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// FetchAll returns every entry, most recent timestamp first. Entries sharing
// a timestamp come back in reverse insertion order.
func FetchAll(ctx context.Context, loc Location) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := withDB(ctx, loc, "fetch_all", false, func(db *sql.DB) error {
		var err error
		entries, err = queryEntries(ctx, db, selectEntriesSQL)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// FetchPage returns a window of FetchAll's ordering. A non-positive limit means no limit.
// The window is cut after parsing so legacy rows land on the right page.
func FetchPage(ctx context.Context, loc Location, limit, offset int) ([]models.AuditEntry, error) {
	if offset < 0 {
		offset = 0
	}

	var entries []models.AuditEntry
	err := withDB(ctx, loc, "fetch_page", false, func(db *sql.DB) error {
		var err error
		entries, err = queryEntries(ctx, db, selectEntriesSQL)
		return err
	})
	if err != nil {
		return nil, err
	}

	if offset >= len(entries) {
		return make([]models.AuditEntry, 0), nil
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

// Count returns the number of stored entries
func Count(ctx context.Context, loc Location) (int, error) {
	var n int
	err := withDB(ctx, loc, "count", false, func(db *sql.DB) error {
		return db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&n)
	})
	return n, err
}

// Ping checks that the store is reachable and initialized
func Ping(ctx context.Context, loc Location) error {
	_, err := Count(ctx, loc)
	return err
}

func queryEntries(ctx context.Context, db *sql.DB, query string, args ...any) ([]models.AuditEntry, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.AuditEntry, 0)
	for rows.Next() {
		var entry models.AuditEntry
		var timestampStr string

		if err := rows.Scan(
			&entry.ID,
			&timestampStr,
			&entry.DatasetName,
			&entry.Description,
			&entry.RowCount,
			&entry.ColumnCount,
		); err != nil {
			return nil, err
		}

		entry.Timestamp, err = parseTimestamp(timestampStr)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", entry.ID, err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortNewestFirst(entries)
	return entries, nil
}

// sortNewestFirst orders by instant, not by stored text: naive local
// timestamps and UTC ones do not compare correctly as strings.
func sortNewestFirst(entries []models.AuditEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID > b.ID
	})
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(TimestampFormat, s); err == nil {
		return t, nil
	}
	for _, layout := range legacyTimestampFormats {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
