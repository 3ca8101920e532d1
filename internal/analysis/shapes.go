package analysis

import (
	"sort"

	"stockaudit/internal/storage/models"
)

// LatestShapes keeps, for every dataset name, the entry with the greatest
// timestamp (greatest id on ties). The result is ordered oldest first.
func LatestShapes(entries []models.AuditEntry) []models.AuditEntry {
	latest := make(map[string]models.AuditEntry)
	for _, e := range entries {
		cur, ok := latest[e.DatasetName]
		if !ok || newer(e, cur) {
			latest[e.DatasetName] = e
		}
	}

	out := make([]models.AuditEntry, 0, len(latest))
	for _, e := range latest {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[j], out[i]) })
	return out
}

func newer(a, b models.AuditEntry) bool {
	if a.Timestamp.Equal(b.Timestamp) {
		return a.ID > b.ID
	}
	return a.Timestamp.After(b.Timestamp)
}
