// Package publish writes a plan's artifacts to the storage target,
// records per-item outcomes in the run manifest, and verifies the
// published documents.
package publish

import (
	"time"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/plan"
)

// Status is the overall outcome of a run.
type Status string

// Run statuses.
const (
	StatusSuccess        Status = "success"
	StatusPartialFailure Status = "partial_failure"
)

// FailedItem records one item that failed generation or upload.
type FailedItem struct {
	ItemID    string `json:"item_id,omitempty"`
	FeatureID string `json:"feature_id"`
	Stage     string `json:"stage"`
	Reason    string `json:"reason"`
}

// SkippedFeature records a feature dropped whole before analysis.
type SkippedFeature struct {
	FeatureID string `json:"feature_id"`
	Reason    string `json:"reason"`
}

// Manifest is the run's machine-readable outcome document. It is always
// emitted on completion, success or partial failure, and is the sole
// signal of partial success besides the process exit code.
type Manifest struct {
	JobID          string           `json:"job_id"`
	CollectionID   string           `json:"collection_id"`
	Status         Status           `json:"status"`
	Target         string           `json:"target"`
	Succeeded      []string         `json:"succeeded"`
	Failed         []FailedItem     `json:"failed"`
	Skipped        []SkippedFeature `json:"skipped_features"`
	SkippedCount   int              `json:"skipped_feature_count"`
	RunErrors      []string         `json:"run_errors,omitempty"`
	Verification   []string         `json:"verification_issues,omitempty"`
	OverlayWritten bool             `json:"overlay_written"`
	BytesUploaded  int64            `json:"bytes_uploaded"`
	StartedAt      time.Time        `json:"started_at"`
	FinishedAt     time.Time        `json:"finished_at"`
}

// newManifest seeds a manifest with the plan identity and the
// construction-time skip records.
func newManifest(p *plan.Plan, skips []plan.Skip, target string) *Manifest {
	m := &Manifest{
		JobID:        p.JobID,
		CollectionID: p.CollectionID,
		Status:       StatusSuccess,
		Target:       target,
		Succeeded:    make([]string, 0, len(p.Items)),
		Failed:       make([]FailedItem, 0),
		Skipped:      make([]SkippedFeature, 0),
		StartedAt:    time.Now().UTC(),
	}

	for _, skip := range skips {
		switch skip.Kind {
		case plan.SkipAnalyzerFailure:
			// Generation failures count against the run outcome.
			m.Failed = append(m.Failed, FailedItem{
				FeatureID: skip.FeatureID,
				Stage:     "analyze",
				Reason:    skip.Reason,
			})
		case plan.SkipInvalidGeometry, plan.SkipTimeExtraction:
			m.Skipped = append(m.Skipped, SkippedFeature{
				FeatureID: skip.FeatureID,
				Reason:    skip.Reason,
			})
		}
	}

	m.SkippedCount = len(m.Skipped)

	return m
}

// finalize stamps the end time and derives the overall status: success
// only when nothing failed and the run itself reported no errors.
func (m *Manifest) finalize() {
	m.FinishedAt = time.Now().UTC()

	if len(m.Failed) > 0 || len(m.RunErrors) > 0 {
		m.Status = StatusPartialFailure
	}
}
