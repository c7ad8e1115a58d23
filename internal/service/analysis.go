package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/sheetsightai/sheetsight/internal/insight"
	"github.com/sheetsightai/sheetsight/internal/metrics"
	"github.com/sheetsightai/sheetsight/internal/models"
	"github.com/sheetsightai/sheetsight/internal/tabular"
)

// AnalysisService runs the insight pipeline: normalize, extract deterministic
// statistics, synthesize narrative, persist. One run per dataset at a time.
type AnalysisService struct {
	datasets DatasetReader
	analyses AnalysisStore
	llm      Generator
	log      *logrus.Logger

	analysisTimeout time.Duration
	anomalyStdDevs  float64
	retryDelay      time.Duration

	runs   *keyedTryLock
	status singleflight.Group
}

// NewAnalysisService creates an AnalysisService.
func NewAnalysisService(
	datasets DatasetReader,
	analyses AnalysisStore,
	generator Generator,
	log *logrus.Logger,
	analysisTimeout time.Duration,
	anomalyStdDevs float64,
) *AnalysisService {
	return &AnalysisService{
		datasets:        datasets,
		analyses:        analyses,
		llm:             generator,
		log:             log,
		analysisTimeout: analysisTimeout,
		anomalyStdDevs:  anomalyStdDevs,
		retryDelay:      defaultLLMRetryDelay,
		runs:            newKeyedTryLock(),
	}
}

// Run starts the analysis pipeline for a dataset and returns the processing
// record immediately. A concurrent run on the same dataset is rejected with
// ErrAnalysisInProgress; runs on other datasets proceed independently.
func (s *AnalysisService) Run(ctx context.Context, accountID, datasetID string) (*models.Analysis, error) {
	datasetID = canonicalID(datasetID)

	if !s.runs.TryLock(datasetID) {
		return nil, models.ErrAnalysisInProgress
	}

	dataset, err := s.datasets.GetDatasetRows(ctx, accountID, datasetID)
	if err != nil {
		s.runs.Unlock(datasetID)

		return nil, err
	}

	analysis, err := s.analyses.UpsertPending(ctx, accountID, datasetID)
	if err != nil {
		s.runs.Unlock(datasetID)

		return nil, err
	}

	if err := s.analyses.SetProcessing(ctx, analysis.ID); err != nil {
		s.runs.Unlock(datasetID)

		return nil, err
	}

	analysis.Status = models.StatusProcessing

	go s.runPipeline(dataset, analysis.ID)

	return analysis, nil
}

// GetByDataset returns the dataset's analysis record. Duplicate concurrent
// status reads are collapsed via singleflight.
func (s *AnalysisService) GetByDataset(ctx context.Context, accountID, datasetID string) (*models.Analysis, error) {
	v, err, _ := s.status.Do(accountID+"/"+datasetID, func() (any, error) {
		return s.analyses.GetByDataset(ctx, accountID, datasetID)
	})
	if err != nil {
		return nil, err
	}

	return v.(*models.Analysis), nil
}

// runPipeline executes the full pipeline detached from the request context,
// bounded by the configured wall-clock deadline. It releases the per-dataset
// run lock when done.
func (s *AnalysisService) runPipeline(dataset *models.Dataset, analysisID string) {
	defer s.runs.Unlock(dataset.ID)

	started := time.Now()

	ctx, cancel := context.WithTimeoutCause(
		context.Background(), s.analysisTimeout, models.ErrAnalysisTimeout)
	defer cancel()

	log := s.log.WithFields(logrus.Fields{
		"dataset_id":  dataset.ID,
		"analysis_id": analysisID,
	})

	if err := s.execute(ctx, dataset, analysisID, log); err != nil {
		if cause := context.Cause(ctx); errors.Is(cause, models.ErrAnalysisTimeout) {
			err = fmt.Errorf("%w (last error: %v)", models.ErrAnalysisTimeout, err)
		}

		s.fail(analysisID, err, log)

		return
	}

	metrics.AnalysisRuns.WithLabelValues("ready").Inc()
	metrics.AnalysisDuration.Observe(time.Since(started).Seconds())
	log.WithField("duration", time.Since(started)).Info("analysis ready")
}

func (s *AnalysisService) execute(ctx context.Context, dataset *models.Dataset, analysisID string, log *logrus.Entry) error {
	table, err := tabular.Normalize(dataset.Columns, dataset.Rows)
	if err != nil {
		return err
	}

	computed := insight.Extract(table, s.anomalyStdDevs)
	rawText := table.RawText()
	description := table.Describe()

	narrative, err := s.synthesize(ctx, rawText, description)
	if err != nil {
		return err
	}

	narrative.Trends = substitutePlaceholders(narrative.Trends, substitutions(computed))
	narrative.Anomalies = substitutePlaceholders(narrative.Anomalies, substitutions(computed))
	narrative.Predictions = substitutePlaceholders(narrative.Predictions, substitutions(computed))
	computed.Narrative = narrative

	log.WithField("sections", countSections(computed)).Debug("insights extracted")

	if err := s.analyses.SetReady(ctx, analysisID, rawText, description, computed); err != nil {
		return err
	}

	return nil
}

// synthesize runs the three narrative calls sequentially. Each call gets one
// retry; a second failure aborts the pipeline.
func (s *AnalysisService) synthesize(ctx context.Context, rawText, description string) (*models.Narrative, error) {
	rawText = truncateText(rawText, maxRawTextChars)
	description = truncateText(description, maxDescriptionChars)

	trends, err := s.generateList(ctx, trendsPrompt(rawText, description), "trends")
	if err != nil {
		return nil, fmt.Errorf("synthesizing trends: %w", err)
	}

	anomalies, err := s.generateList(ctx, anomaliesPrompt(rawText, description), "anomalies")
	if err != nil {
		return nil, fmt.Errorf("synthesizing anomalies: %w", err)
	}

	predictions, err := s.generateList(ctx, predictionsPrompt(rawText, description), "predictions")
	if err != nil {
		return nil, fmt.Errorf("synthesizing predictions: %w", err)
	}

	return &models.Narrative{
		Trends:      trends,
		Anomalies:   anomalies,
		Predictions: predictions,
	}, nil
}

// generateList calls the model and extracts the named string-list key from
// its JSON response. A malformed response is not a provider failure: it
// degrades to a placeholder line rather than failing the pipeline.
func (s *AnalysisService) generateList(ctx context.Context, prompt, key string) ([]string, error) {
	attempt := 0

	raw, err := retryGenerate(ctx, s.retryDelay, func(ctx context.Context) (string, error) {
		attempt++
		if attempt > 1 {
			metrics.LLMRetries.Inc()
		}

		out, genErr := s.llm.Generate(ctx, prompt)
		if genErr != nil {
			metrics.LLMCalls.WithLabelValues("error").Inc()

			return "", genErr
		}

		metrics.LLMCalls.WithLabelValues("ok").Inc()

		return out, nil
	})
	if err != nil {
		return nil, err
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("unparseable narrative response")

		return []string{"Unable to parse " + key + " analysis"}, nil
	}

	var items []string
	if err := json.Unmarshal(payload[key], &items); err != nil || len(items) == 0 {
		return []string{"No " + key + " identified"}, nil
	}

	return items, nil
}

// fail persists the failed state with a fresh context: the pipeline context
// may already be past its deadline.
func (s *AnalysisService) fail(analysisID string, cause error, log *logrus.Entry) {
	outcome := "failed"
	if errors.Is(cause, models.ErrAnalysisTimeout) {
		outcome = "timeout"
	}

	metrics.AnalysisRuns.WithLabelValues(outcome).Inc()
	log.WithError(cause).Warn("analysis failed")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.analyses.SetFailed(ctx, analysisID, cause.Error()); err != nil {
		log.WithError(err).Error("persisting failed analysis state")
	}
}

func countSections(ins *models.Insights) int {
	count := 0

	for _, present := range []bool{
		ins.DatasetInfo != nil, ins.SalesMetrics != nil, ins.RevenueDistribution != nil,
		ins.TopSalesReps != nil, len(ins.TopCustomers) > 0, ins.CustomerMetrics != nil,
		len(ins.TopProducts) > 0, len(ins.RevenueByCategory) > 0,
		len(ins.RegionalPerformance) > 0, len(ins.MonthlyTrends) > 0,
		ins.GrowthMetrics != nil, len(ins.DailyPatterns) > 0,
		len(ins.Anomalies) > 0, ins.Narrative != nil,
	} {
		if present {
			count++
		}
	}

	return count
}
