package models

import (
	"time"
)

// AuditEntry represents one immutable dataset provenance event
type AuditEntry struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	DatasetName string    `json:"dataset_name"`
	Description string    `json:"description"`
	RowCount    int       `json:"row_count"`
	ColumnCount int       `json:"column_count"`
}

// Shape returns the (rows, columns) snapshot recorded with the entry
func (e AuditEntry) Shape() (int, int) {
	return e.RowCount, e.ColumnCount
}
