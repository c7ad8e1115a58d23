package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sheetsightai/sheetsight/internal/models"
)

// StatsStore aggregates per-account usage counters.
type StatsStore struct {
	Base
}

// NewStatsStore creates a new StatsStore.
func NewStatsStore(base Base) *StatsStore {
	return &StatsStore{Base: base}
}

// GetStats returns the account's dataset, analysis, and chat turn counts.
// Turn counts respect the retention horizon like every other read path.
func (s *StatsStore) GetStats(ctx context.Context, accountID string) (*models.Stats, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting stats: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	stats := &models.Stats{AnalysesByStatus: make(map[string]int)}

	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM datasets WHERE account_id = $1`,
		accountID).Scan(&stats.Datasets)
	if err != nil {
		return nil, fmt.Errorf("counting datasets: %w", err)
	}

	rows, err := tx.Query(ctx,
		`SELECT status, count(*) FROM analyses WHERE account_id = $1 GROUP BY status`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("counting analyses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int

		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning analysis count: %w", err)
		}

		stats.AnalysesByStatus[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating analysis counts: %w", err)
	}

	cutoff := time.Now().Add(-models.RetentionHorizon)

	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM chat_turns WHERE account_id = $1 AND created_at >= $2`,
		accountID, cutoff).Scan(&stats.ChatTurns)
	if err != nil {
		return nil, fmt.Errorf("counting chat turns: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing stats query: %w", err)
	}

	return stats, nil
}
