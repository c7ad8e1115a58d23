// Package models defines data types for the insight engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Limits for ingested datasets.
const (
	MaxDatasetName = 255
	MaxColumnName  = 255
	MaxColumns     = 256
	MaxRows        = 100_000
)

// Dataset is the canonical tabular representation of one upload. Rows are
// immutable after ingest; downstream components consume them read-only.
type Dataset struct {
	ID          string           `json:"id"`
	AccountID   uuid.UUID        `json:"-"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Columns     []string         `json:"columns"`
	RowCount    int              `json:"row_count"`
	Rows        []map[string]any `json:"-"`
	CreatedAt   time.Time        `json:"created_at"`
}

// IngestDatasetRequest is the payload for creating a dataset from parsed rows.
// Row parsing itself happens upstream; this is the adapter boundary.
type IngestDatasetRequest struct {
	Name    string           `json:"name"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// Validate checks presence and size limits. Schema reconciliation across rows
// is the normalizer's job, not validation.
func (r *IngestDatasetRequest) Validate() error {
	if r.Name == "" {
		return ErrMissingName
	}

	if len(r.Name) > MaxDatasetName {
		return ErrFieldTooLong("name", MaxDatasetName)
	}

	if len(r.Columns) == 0 {
		return ErrMissingColumns
	}

	if len(r.Columns) > MaxColumns {
		return ErrFieldTooLong("columns", MaxColumns)
	}

	for _, col := range r.Columns {
		if len(col) > MaxColumnName {
			return ErrFieldTooLong("column name", MaxColumnName)
		}
	}

	if len(r.Rows) == 0 {
		return ErrMissingRows
	}

	if len(r.Rows) > MaxRows {
		return ErrFieldTooLong("rows", MaxRows)
	}

	return nil
}
