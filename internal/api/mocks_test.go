package api_test

import (
	"context"

	"github.com/sheetsightai/sheetsight/internal/models"
)

// mockDatasetRepo implements api.DatasetRepository for testing.
type mockDatasetRepo struct {
	createFn func(ctx context.Context, accountID string, d *models.Dataset) error
	getFn    func(ctx context.Context, accountID, id string) (*models.Dataset, error)
	listFn   func(ctx context.Context, accountID string, limit, offset int) ([]models.Dataset, bool, error)
	deleteFn func(ctx context.Context, accountID, id string) error
}

func (m *mockDatasetRepo) CreateDataset(ctx context.Context, accountID string, d *models.Dataset) error {
	return m.createFn(ctx, accountID, d)
}

func (m *mockDatasetRepo) GetDataset(ctx context.Context, accountID, id string) (*models.Dataset, error) {
	return m.getFn(ctx, accountID, id)
}

func (m *mockDatasetRepo) ListDatasets(ctx context.Context, accountID string, limit, offset int) ([]models.Dataset, bool, error) {
	return m.listFn(ctx, accountID, limit, offset)
}

func (m *mockDatasetRepo) DeleteDataset(ctx context.Context, accountID, id string) error {
	return m.deleteFn(ctx, accountID, id)
}

// mockAnalysisRunner implements api.AnalysisRunner for testing.
type mockAnalysisRunner struct {
	runFn func(ctx context.Context, accountID, datasetID string) (*models.Analysis, error)
	getFn func(ctx context.Context, accountID, datasetID string) (*models.Analysis, error)
}

func (m *mockAnalysisRunner) Run(ctx context.Context, accountID, datasetID string) (*models.Analysis, error) {
	return m.runFn(ctx, accountID, datasetID)
}

func (m *mockAnalysisRunner) GetByDataset(ctx context.Context, accountID, datasetID string) (*models.Analysis, error) {
	return m.getFn(ctx, accountID, datasetID)
}

// mockChatProvider implements api.ChatProvider for testing.
type mockChatProvider struct {
	answerFn  func(ctx context.Context, accountID, datasetID, question string) (*models.ChatTurn, error)
	historyFn func(ctx context.Context, accountID, datasetID string, limit, offset int) ([]models.ChatTurn, bool, error)
}

func (m *mockChatProvider) AnswerQuestion(ctx context.Context, accountID, datasetID, question string) (*models.ChatTurn, error) {
	return m.answerFn(ctx, accountID, datasetID, question)
}

func (m *mockChatProvider) GetHistory(ctx context.Context, accountID, datasetID string, limit, offset int) ([]models.ChatTurn, bool, error) {
	return m.historyFn(ctx, accountID, datasetID, limit, offset)
}

// mockRenderer implements api.ReportRenderer for testing.
type mockRenderer struct {
	renderFn func(analysis *models.Analysis, datasetName string) ([]byte, error)
}

func (m *mockRenderer) Render(analysis *models.Analysis, datasetName string) ([]byte, error) {
	return m.renderFn(analysis, datasetName)
}

// mockStatsRepo implements api.StatsRepository for testing.
type mockStatsRepo struct {
	getFn func(ctx context.Context, accountID string) (*models.Stats, error)
}

func (m *mockStatsRepo) GetStats(ctx context.Context, accountID string) (*models.Stats, error) {
	return m.getFn(ctx, accountID)
}
