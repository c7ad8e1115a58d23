package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sheetsightai/sheetsight/internal/models"
)

// TurnStore handles chat turn persistence. Turns are append-only: the
// per-dataset cap is enforced in the append transaction, the retention
// horizon is enforced at read time, and the sweeper physically purges
// expired rows.
type TurnStore struct {
	Base
}

// NewTurnStore creates a new TurnStore.
func NewTurnStore(base Base) *TurnStore {
	return &TurnStore{Base: base}
}

// analysis_id is NULL for turns whose analysis has been superseded; they stay
// readable in history but never match a window's analysis filter.
const turnColumns = `id, dataset_id, COALESCE(analysis_id::text, ''), account_id, question, answer, created_at`

// AppendTurn inserts a turn and evicts the oldest turns beyond the
// per-dataset storage cap in the same transaction. It returns the number of
// evicted turns.
func (s *TurnStore) AppendTurn(ctx context.Context, turn *models.ChatTurn) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("appending turn: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	err = tx.QueryRow(ctx,
		`INSERT INTO chat_turns (dataset_id, analysis_id, account_id, question, answer)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		turn.DatasetID, turn.AnalysisID, turn.AccountID, turn.Question, turn.Answer,
	).Scan(&turn.ID, &turn.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("inserting chat turn: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM chat_turns WHERE dataset_id = $1 AND id IN (
			SELECT id FROM chat_turns
			WHERE dataset_id = $1
			ORDER BY created_at DESC, id DESC
			OFFSET $2
		)`,
		turn.DatasetID, models.TurnStorageCap)
	if err != nil {
		return 0, fmt.Errorf("evicting over-cap turns: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing turn append: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Window returns the most recent turns for the given analysis inside the
// retention horizon, oldest first, for prompt context assembly. Turns from a
// superseded analysis carry a NULL analysis_id and are excluded here.
func (s *TurnStore) Window(ctx context.Context, accountID, datasetID, analysisID string, limit int) ([]models.ChatTurn, error) {
	if limit <= 0 {
		limit = models.ContextWindowTurns
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cutoff := time.Now().Add(-models.RetentionHorizon)

	rows, err := s.Pool.Query(ctx,
		`SELECT `+turnColumns+` FROM chat_turns
		WHERE account_id = $1 AND dataset_id = $2 AND analysis_id = $3 AND created_at >= $4
		ORDER BY created_at DESC, id DESC
		LIMIT $5`,
		accountID, datasetID, analysisID, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("querying turn window: %w", err)
	}
	defer rows.Close()

	turns, err := collectTurns(rows)
	if err != nil {
		return nil, err
	}

	// Reverse newest-first query order into chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, nil
}

// GetHistory returns a page of the dataset's turns inside the retention
// horizon, oldest first, with has_more pagination.
func (s *TurnStore) GetHistory(ctx context.Context, accountID, datasetID string, limit, offset int) ([]models.ChatTurn, bool, error) {
	limit, offset = clampPage(limit, offset)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cutoff := time.Now().Add(-models.RetentionHorizon)

	rows, err := s.Pool.Query(ctx,
		`SELECT `+turnColumns+` FROM chat_turns
		WHERE account_id = $1 AND dataset_id = $2 AND created_at >= $3
		ORDER BY created_at ASC, id ASC
		LIMIT $4 OFFSET $5`,
		accountID, datasetID, cutoff, limit+1, offset)
	if err != nil {
		return nil, false, fmt.Errorf("querying chat history: %w", err)
	}
	defer rows.Close()

	turns, err := collectTurns(rows)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(turns) > limit
	if hasMore {
		turns = turns[:limit]
	}

	return turns, hasMore, nil
}

// PurgeExpired deletes turns older than the retention horizon across all
// accounts. Called by the retention sweeper.
func (s *TurnStore) PurgeExpired(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cutoff := time.Now().Add(-models.RetentionHorizon)

	tag, err := s.Pool.Exec(ctx, `DELETE FROM chat_turns WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging expired turns: %w", err)
	}

	return tag.RowsAffected(), nil
}

// scanTurn scans a single row into a models.ChatTurn.
func scanTurn(scan func(dest ...any) error) (*models.ChatTurn, error) {
	var t models.ChatTurn
	var accountID uuid.UUID

	err := scan(
		&t.ID,
		&t.DatasetID,
		&t.AnalysisID,
		&accountID,
		&t.Question,
		&t.Answer,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.AccountID = accountID

	return &t, nil
}

// collectTurns scans all rows into a turn slice.
func collectTurns(rows pgx.Rows) ([]models.ChatTurn, error) {
	turns := make([]models.ChatTurn, 0, 16)

	for rows.Next() {
		t, err := scanTurn(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning chat turn row: %w", err)
		}

		turns = append(turns, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat turn rows: %w", err)
	}

	return turns, nil
}
