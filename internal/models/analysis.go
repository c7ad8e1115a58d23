package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisStatus is the lifecycle state of an analysis record.
type AnalysisStatus string

// Analysis lifecycle states. Transitions are pending → processing → ready,
// or pending → processing → failed. A rerun supersedes the record in place.
const (
	StatusPending    AnalysisStatus = "pending"
	StatusProcessing AnalysisStatus = "processing"
	StatusReady      AnalysisStatus = "ready"
	StatusFailed     AnalysisStatus = "failed"
)

// Analysis is the persisted result of one analysis run over a dataset.
// At most one active record exists per dataset.
type Analysis struct {
	ID          string         `json:"id"`
	DatasetID   string         `json:"dataset_id"`
	AccountID   uuid.UUID      `json:"-"`
	Status      AnalysisStatus `json:"status"`
	RawText     string         `json:"raw_text,omitempty"`
	Description string         `json:"description,omitempty"`
	Insights    *Insights      `json:"insights,omitempty"`
	Failure     *string        `json:"failure,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Ready reports whether the record is usable for chat and export.
func (a *Analysis) Ready() bool {
	return a != nil && a.Status == StatusReady
}
