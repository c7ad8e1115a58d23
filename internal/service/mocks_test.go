package service

import (
	"context"
	"sync"

	"github.com/sheetsightai/sheetsight/internal/models"
)

// mockDatasetStore records calls and returns configured responses.
type mockDatasetStore struct {
	mu    sync.Mutex
	calls []string

	getDataset     func(ctx context.Context, accountID, id string) (*models.Dataset, error)
	getDatasetRows func(ctx context.Context, accountID, id string) (*models.Dataset, error)
}

func (m *mockDatasetStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockDatasetStore) GetDataset(ctx context.Context, accountID, id string) (*models.Dataset, error) {
	m.record("GetDataset")
	return m.getDataset(ctx, accountID, id)
}

func (m *mockDatasetStore) GetDatasetRows(ctx context.Context, accountID, id string) (*models.Dataset, error) {
	m.record("GetDatasetRows")
	return m.getDatasetRows(ctx, accountID, id)
}

// mockAnalysisStore records calls and returns configured responses.
type mockAnalysisStore struct {
	mu    sync.Mutex
	calls []string

	upsertPending func(ctx context.Context, accountID, datasetID string) (*models.Analysis, error)
	setProcessing func(ctx context.Context, id string) error
	setReady      func(ctx context.Context, id, rawText, description string, insights *models.Insights) error
	setFailed     func(ctx context.Context, id, failure string) error
	getByDataset  func(ctx context.Context, accountID, datasetID string) (*models.Analysis, error)
}

func (m *mockAnalysisStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockAnalysisStore) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockAnalysisStore) UpsertPending(ctx context.Context, accountID, datasetID string) (*models.Analysis, error) {
	m.record("UpsertPending")
	return m.upsertPending(ctx, accountID, datasetID)
}

func (m *mockAnalysisStore) SetProcessing(ctx context.Context, id string) error {
	m.record("SetProcessing")
	return m.setProcessing(ctx, id)
}

func (m *mockAnalysisStore) SetReady(ctx context.Context, id, rawText, description string, insights *models.Insights) error {
	m.record("SetReady")
	return m.setReady(ctx, id, rawText, description, insights)
}

func (m *mockAnalysisStore) SetFailed(ctx context.Context, id, failure string) error {
	m.record("SetFailed")
	return m.setFailed(ctx, id, failure)
}

func (m *mockAnalysisStore) GetByDataset(ctx context.Context, accountID, datasetID string) (*models.Analysis, error) {
	m.record("GetByDataset")
	return m.getByDataset(ctx, accountID, datasetID)
}

// mockTurnStore records calls and returns configured responses.
type mockTurnStore struct {
	mu    sync.Mutex
	calls []string

	appendTurn func(ctx context.Context, turn *models.ChatTurn) (int64, error)
	window     func(ctx context.Context, accountID, datasetID, analysisID string, limit int) ([]models.ChatTurn, error)
	getHistory func(ctx context.Context, accountID, datasetID string, limit, offset int) ([]models.ChatTurn, bool, error)
}

func (m *mockTurnStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockTurnStore) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockTurnStore) AppendTurn(ctx context.Context, turn *models.ChatTurn) (int64, error) {
	m.record("AppendTurn")
	return m.appendTurn(ctx, turn)
}

func (m *mockTurnStore) Window(ctx context.Context, accountID, datasetID, analysisID string, limit int) ([]models.ChatTurn, error) {
	m.record("Window")
	return m.window(ctx, accountID, datasetID, analysisID, limit)
}

func (m *mockTurnStore) GetHistory(ctx context.Context, accountID, datasetID string, limit, offset int) ([]models.ChatTurn, bool, error) {
	m.record("GetHistory")
	return m.getHistory(ctx, accountID, datasetID, limit, offset)
}

// mockGenerator returns configured completions.
type mockGenerator struct {
	mu    sync.Mutex
	calls int

	generate func(ctx context.Context, prompt string) (string, error)
	complete func(ctx context.Context, prompt string) (string, error)
}

func (m *mockGenerator) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.generate(ctx, prompt)
}

func (m *mockGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.complete(ctx, prompt)
}
