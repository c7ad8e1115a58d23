// Package service provides business logic between API handlers and data stores.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sheetsightai/sheetsight/internal/models"
)

// Generator produces a completion for a prompt. Generate constrains output
// to JSON, Complete returns free-form text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Complete(ctx context.Context, prompt string) (string, error)
}

// DatasetReader is the dataset access the services depend on.
type DatasetReader interface {
	GetDataset(ctx context.Context, accountID, id string) (*models.Dataset, error)
	GetDatasetRows(ctx context.Context, accountID, id string) (*models.Dataset, error)
}

// AnalysisStore is the analysis persistence the services depend on.
type AnalysisStore interface {
	UpsertPending(ctx context.Context, accountID, datasetID string) (*models.Analysis, error)
	SetProcessing(ctx context.Context, id string) error
	SetReady(ctx context.Context, id, rawText, description string, insights *models.Insights) error
	SetFailed(ctx context.Context, id, failure string) error
	GetByDataset(ctx context.Context, accountID, datasetID string) (*models.Analysis, error)
}

// TurnStore is the chat turn persistence ChatService depends on.
type TurnStore interface {
	AppendTurn(ctx context.Context, turn *models.ChatTurn) (int64, error)
	Window(ctx context.Context, accountID, datasetID, analysisID string, limit int) ([]models.ChatTurn, error)
	GetHistory(ctx context.Context, accountID, datasetID string, limit, offset int) ([]models.ChatTurn, bool, error)
}

// LLM retry policy shared by the analysis and chat paths: each backend call
// gets a single retry after a short backoff.
const defaultLLMRetryDelay = 2 * time.Second

// retryGenerate invokes call, retrying once after delay on error. A context
// that is already dead skips the backoff and surfaces the cancellation cause.
func retryGenerate(ctx context.Context, delay time.Duration, call func(context.Context) (string, error)) (string, error) {
	out, err := call(ctx)
	if err == nil {
		return out, nil
	}

	if ctx.Err() != nil {
		return "", fmt.Errorf("generation aborted: %w", context.Cause(ctx))
	}

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("generation aborted: %w", context.Cause(ctx))
	case <-time.After(delay):
	}

	return call(ctx)
}

// canonicalID normalizes UUID spelling so per-dataset lock keys always match
// the id the store returns. Postgres matches UUIDs case-insensitively; the
// lock tables must not key on the raw path spelling. Non-UUID input passes
// through unchanged for the store to reject.
func canonicalID(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}

	return id
}

// keyedTryLock grants non-blocking exclusive ownership per key.
type keyedTryLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newKeyedTryLock() *keyedTryLock {
	return &keyedTryLock{held: make(map[string]struct{})}
}

// TryLock acquires the key if free. The caller must Unlock with the same key.
func (l *keyedTryLock) TryLock(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, taken := l.held[key]; taken {
		return false
	}

	l.held[key] = struct{}{}

	return true
}

func (l *keyedTryLock) Unlock(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.held, key)
}

// keyedMutex serializes work per key while leaving distinct keys concurrent.
// Entries are never removed; the key space (dataset IDs seen by this process)
// is small and bounded by account activity.
type keyedMutex struct {
	locks sync.Map // key → *sync.Mutex
}

// Lock blocks until the key's mutex is held and returns the unlock func.
func (m *keyedMutex) Lock(key string) func() {
	entry, _ := m.locks.LoadOrStore(key, &sync.Mutex{})
	mu := entry.(*sync.Mutex)
	mu.Lock()

	return mu.Unlock
}
