package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockaudit/internal/storage"
)

// mockLocation registers a sqlmock connection under dsn and returns a location pointing at it
func mockLocation(t *testing.T, dsn string) (storage.Location, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.NewWithDSN(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return storage.Location{Driver: "sqlmock", Path: dsn}, mock
}

func TestRecord_IOFailureIsStorageError(t *testing.T) {
	loc, mock := mockLocation(t, "record_io_failure")

	mock.ExpectExec("INSERT INTO audit_log").
		WithArgs(sqlmock.AnyArg(), "stock_df", "loaded", int64(100), int64(5)).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectClose()

	_, err := storage.Record(context.Background(), loc, "stock_df", "loaded", 100, 5)
	require.Error(t, err)

	var se *storage.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "record", se.Op)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NotErrorIs(t, err, storage.ErrSchemaMissing)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_MissingTableIsSchemaMissing(t *testing.T) {
	loc, mock := mockLocation(t, "record_missing_table")

	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnError(errors.New("no such table: audit_log"))
	mock.ExpectClose()

	_, err := storage.Record(context.Background(), loc, "stock_df", "loaded", 1, 1)
	assert.ErrorIs(t, err, storage.ErrSchemaMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_ReturnsInsertedID(t *testing.T) {
	loc, mock := mockLocation(t, "record_inserted_id")

	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectClose()

	entry, err := storage.Record(context.Background(), loc, "news_df", "loaded", 40, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(7), entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchAll_QueryFailure(t *testing.T) {
	loc, mock := mockLocation(t, "fetch_query_failure")

	mock.ExpectQuery("SELECT (.+) FROM audit_log ORDER BY timestamp DESC, id DESC").
		WillReturnError(errors.New("database is locked"))
	mock.ExpectClose()

	entries, err := storage.FetchAll(context.Background(), loc)
	require.Error(t, err)
	assert.Nil(t, entries)
	assert.True(t, storage.IsStorageError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchAll_CorruptTimestamp(t *testing.T) {
	loc, mock := mockLocation(t, "fetch_corrupt_timestamp")

	rows := sqlmock.NewRows([]string{"id", "timestamp", "dataset_name", "description", "row_count", "column_count"}).
		AddRow(int64(1), "not-a-time", "stock_df", "loaded", int64(1), int64(1))
	mock.ExpectQuery("SELECT (.+) FROM audit_log").WillReturnRows(rows)
	mock.ExpectClose()

	_, err := storage.FetchAll(context.Background(), loc)
	require.Error(t, err)
	assert.True(t, storage.IsStorageError(err))
	assert.Contains(t, err.Error(), "unparseable timestamp")
	assert.NoError(t, mock.ExpectationsWereMet())
}
