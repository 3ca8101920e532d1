package pipeline

import (
	"context"

	"stockaudit/internal/storage"
)

// Recorder receives a provenance event after every stage
type Recorder interface {
	RecordFromDataset(ctx context.Context, datasetName, description string, ds storage.Shaper) error
}

// AuditRecorder records stage events in the audit store at Location
type AuditRecorder struct {
	Location storage.Location
}

// RecordFromDataset implements Recorder
func (a AuditRecorder) RecordFromDataset(ctx context.Context, datasetName, description string, ds storage.Shaper) error {
	_, err := storage.RecordFromDataset(ctx, a.Location, datasetName, description, ds)
	return err
}
