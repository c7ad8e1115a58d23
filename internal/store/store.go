// Package store provides focused, single-concern data access stores
// for sheetsight.
//
// Each store owns one domain (datasets, analyses, chat turns) and embeds
// shared helpers (Pool, logger) via the Base struct. Stores never import
// each other — shared logic lives in this file.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/sheetsightai/sheetsight/internal/dbpool"
)

const defaultQueryTimeout = 30 * time.Second

// maxListLimit caps page sizes on list endpoints.
const maxListLimit = 200

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// beginTx starts a read-write transaction.
func (b *Base) beginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return tx, nil
}

// beginReadTx starts a read-only transaction.
func (b *Base) beginReadTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}

	return tx, nil
}

// GetAccountByAPIKey looks up an account ID by API key hash.
func (b *Base) GetAccountByAPIKey(ctx context.Context, apiKey string) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	hash := sha256.Sum256([]byte(apiKey))
	apiKeyHash := hex.EncodeToString(hash[:])

	var accountID string

	err := b.Pool.QueryRow(ctx, "SELECT id FROM accounts WHERE api_key_hash = $1", apiKeyHash).Scan(&accountID)
	if err != nil {
		return "", fmt.Errorf("looking up account by API key: %w", err)
	}

	return accountID, nil
}

// clampPage normalizes limit and offset for list queries.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// mapNoRows converts pgx.ErrNoRows into the given domain sentinel.
func mapNoRows(err, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}

	return err
}
