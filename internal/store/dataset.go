package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/sheetsightai/sheetsight/internal/models"
)

// DatasetStore handles dataset persistence.
type DatasetStore struct {
	Base
}

// NewDatasetStore creates a new DatasetStore.
func NewDatasetStore(base Base) *DatasetStore {
	return &DatasetStore{Base: base}
}

// datasetColumns lists the columns selected for dataset queries (excluding rows).
const datasetColumns = `id, account_id, name, description, column_names, row_count, created_at`

// CreateDataset inserts a dataset with its row payload and returns the
// generated ID.
func (s *DatasetStore) CreateDataset(ctx context.Context, accountID string, d *models.Dataset) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rowsJSON, err := json.Marshal(d.Rows)
	if err != nil {
		return fmt.Errorf("marshalling dataset rows: %w", err)
	}

	err = s.Pool.QueryRow(ctx,
		`INSERT INTO datasets (account_id, name, description, column_names, row_count, rows)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, account_id, created_at`,
		accountID, d.Name, d.Description, d.Columns, d.RowCount, rowsJSON,
	).Scan(&d.ID, &d.AccountID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting dataset: %w", err)
	}

	return nil
}

// GetDataset loads a dataset's metadata without its row payload.
func (s *DatasetStore) GetDataset(ctx context.Context, accountID, id string) (*models.Dataset, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx,
		`SELECT `+datasetColumns+` FROM datasets WHERE account_id = $1 AND id = $2`,
		accountID, id)

	d, err := scanDataset(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("fetching dataset: %w", mapNoRows(err, models.ErrDatasetNotFound))
	}

	return d, nil
}

// GetDatasetRows loads a dataset including its full row payload.
func (s *DatasetStore) GetDatasetRows(ctx context.Context, accountID, id string) (*models.Dataset, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var rowsJSON []byte

	row := s.Pool.QueryRow(ctx,
		`SELECT `+datasetColumns+`, rows FROM datasets WHERE account_id = $1 AND id = $2`,
		accountID, id)

	var d models.Dataset
	var acct uuid.UUID

	err := row.Scan(
		&d.ID, &acct, &d.Name, &d.Description, &d.Columns, &d.RowCount, &d.CreatedAt,
		&rowsJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching dataset rows: %w", mapNoRows(err, models.ErrDatasetNotFound))
	}

	d.AccountID = acct

	if err := json.Unmarshal(rowsJSON, &d.Rows); err != nil {
		return nil, fmt.Errorf("unmarshalling dataset rows: %w", err)
	}

	return &d, nil
}

// ListDatasets returns a page of the account's datasets, newest first, with
// has_more pagination.
func (s *DatasetStore) ListDatasets(ctx context.Context, accountID string, limit, offset int) ([]models.Dataset, bool, error) {
	limit, offset = clampPage(limit, offset)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		`SELECT `+datasetColumns+` FROM datasets
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		accountID, limit+1, offset)
	if err != nil {
		return nil, false, fmt.Errorf("querying datasets: %w", err)
	}
	defer rows.Close()

	datasets := make([]models.Dataset, 0, limit+1)

	for rows.Next() {
		d, err := scanDataset(rows.Scan)
		if err != nil {
			return nil, false, fmt.Errorf("scanning dataset row: %w", err)
		}

		datasets = append(datasets, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating dataset rows: %w", err)
	}

	hasMore := len(datasets) > limit
	if hasMore {
		datasets = datasets[:limit]
	}

	return datasets, hasMore, nil
}

// DeleteDataset removes a dataset. The analysis and chat turns go with it
// via ON DELETE CASCADE.
func (s *DatasetStore) DeleteDataset(ctx context.Context, accountID, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx,
		`DELETE FROM datasets WHERE account_id = $1 AND id = $2`,
		accountID, id)
	if err != nil {
		return fmt.Errorf("deleting dataset: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrDatasetNotFound
	}

	return nil
}

// scanDataset scans a single row into a models.Dataset (without row payload).
func scanDataset(scan func(dest ...any) error) (*models.Dataset, error) {
	var d models.Dataset
	var accountID uuid.UUID

	err := scan(
		&d.ID,
		&accountID,
		&d.Name,
		&d.Description,
		&d.Columns,
		&d.RowCount,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.AccountID = accountID

	return &d, nil
}
