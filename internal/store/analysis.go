package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/sheetsightai/sheetsight/internal/models"
)

// AnalysisStore handles analysis record persistence. Each dataset has at most
// one analysis row; a rerun replaces it with a fresh row.
type AnalysisStore struct {
	Base
}

// NewAnalysisStore creates a new AnalysisStore.
func NewAnalysisStore(base Base) *AnalysisStore {
	return &AnalysisStore{Base: base}
}

const analysisColumns = `id, dataset_id, account_id, status, raw_text, description, insights, failure, created_at, updated_at`

// UpsertPending replaces the dataset's analysis row with a fresh pending one.
// The new row always carries a new id: turns recorded against the superseded
// analysis keep their rows (the FK nulls their analysis_id) but no longer
// match the context-window filter, so a rerun starts from a clean context.
func (s *AnalysisStore) UpsertPending(ctx context.Context, accountID, datasetID string) (*models.Analysis, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("upserting pending analysis: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if _, err := tx.Exec(ctx,
		`DELETE FROM analyses WHERE dataset_id = $1 AND account_id = $2`,
		datasetID, accountID); err != nil {
		return nil, fmt.Errorf("superseding previous analysis: %w", err)
	}

	row := tx.QueryRow(ctx,
		`INSERT INTO analyses (dataset_id, account_id, status)
		VALUES ($1, $2, 'pending')
		RETURNING `+analysisColumns,
		datasetID, accountID)

	a, err := scanAnalysis(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("inserting pending analysis: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing analysis upsert: %w", err)
	}

	return a, nil
}

// SetProcessing transitions the analysis into the processing state.
func (s *AnalysisStore) SetProcessing(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, models.StatusProcessing)
}

// SetReady stores the computed insights and marks the analysis ready.
func (s *AnalysisStore) SetReady(ctx context.Context, id, rawText, description string, insights *models.Insights) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	insightsJSON, err := json.Marshal(insights)
	if err != nil {
		return fmt.Errorf("marshalling insights: %w", err)
	}

	tag, err := s.Pool.Exec(ctx,
		`UPDATE analyses SET
			status = 'ready',
			raw_text = $2,
			description = $3,
			insights = $4,
			failure = NULL,
			updated_at = now()
		WHERE id = $1`,
		id, rawText, description, insightsJSON)
	if err != nil {
		return fmt.Errorf("marking analysis ready: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrAnalysisNotFound
	}

	return nil
}

// SetFailed marks the analysis failed with a bounded failure summary. The
// summary is operator-facing and must not contain dataset contents.
func (s *AnalysisStore) SetFailed(ctx context.Context, id, failure string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx,
		`UPDATE analyses SET status = 'failed', failure = $2, updated_at = now() WHERE id = $1`,
		id, failure)
	if err != nil {
		return fmt.Errorf("marking analysis failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrAnalysisNotFound
	}

	return nil
}

// GetByDataset loads the dataset's analysis record.
func (s *AnalysisStore) GetByDataset(ctx context.Context, accountID, datasetID string) (*models.Analysis, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE account_id = $1 AND dataset_id = $2`,
		accountID, datasetID)

	a, err := scanAnalysis(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("fetching analysis: %w", mapNoRows(err, models.ErrAnalysisNotFound))
	}

	return a, nil
}

func (s *AnalysisStore) setStatus(ctx context.Context, id string, status models.AnalysisStatus) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx,
		`UPDATE analyses SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(status))
	if err != nil {
		return fmt.Errorf("updating analysis status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrAnalysisNotFound
	}

	return nil
}

// scanAnalysis scans a single row into a models.Analysis.
func scanAnalysis(scan func(dest ...any) error) (*models.Analysis, error) {
	var a models.Analysis
	var accountID uuid.UUID
	var status string
	var insightsJSON []byte

	err := scan(
		&a.ID,
		&a.DatasetID,
		&accountID,
		&status,
		&a.RawText,
		&a.Description,
		&insightsJSON,
		&a.Failure,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.AccountID = accountID
	a.Status = models.AnalysisStatus(status)

	if len(insightsJSON) > 0 {
		a.Insights = &models.Insights{}
		if err := json.Unmarshal(insightsJSON, a.Insights); err != nil {
			return nil, fmt.Errorf("unmarshalling insights: %w", err)
		}
	}

	return &a, nil
}
