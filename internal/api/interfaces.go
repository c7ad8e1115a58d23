package api

import (
	"context"

	"github.com/sheetsightai/sheetsight/internal/models"
)

// DatasetRepository defines dataset operations used by DatasetHandler.
type DatasetRepository interface {
	CreateDataset(ctx context.Context, accountID string, d *models.Dataset) error
	GetDataset(ctx context.Context, accountID, id string) (*models.Dataset, error)
	ListDatasets(ctx context.Context, accountID string, limit, offset int) ([]models.Dataset, bool, error)
	DeleteDataset(ctx context.Context, accountID, id string) error
}

// AnalysisRunner defines analysis operations used by AnalysisHandler.
type AnalysisRunner interface {
	Run(ctx context.Context, accountID, datasetID string) (*models.Analysis, error)
	GetByDataset(ctx context.Context, accountID, datasetID string) (*models.Analysis, error)
}

// ChatProvider defines conversation operations used by ChatHandler.
type ChatProvider interface {
	AnswerQuestion(ctx context.Context, accountID, datasetID, question string) (*models.ChatTurn, error)
	GetHistory(ctx context.Context, accountID, datasetID string, limit, offset int) ([]models.ChatTurn, bool, error)
}

// ReportRenderer defines PDF rendering used by ReportHandler.
type ReportRenderer interface {
	Render(analysis *models.Analysis, datasetName string) ([]byte, error)
}

// StatsRepository defines the account counters used by StatsHandler.
type StatsRepository interface {
	GetStats(ctx context.Context, accountID string) (*models.Stats, error)
}

// ModelPinger reports model backend reachability for readiness checks.
type ModelPinger interface {
	Ping(ctx context.Context) error
}
