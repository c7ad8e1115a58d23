package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sheetsightai/sheetsight/internal/metrics"
	"github.com/sheetsightai/sheetsight/internal/models"
)

// ChatService answers questions about an analyzed dataset. Conversations are
// serialized per dataset so turn ordering and cap eviction stay deterministic;
// different datasets chat concurrently.
type ChatService struct {
	datasets DatasetReader
	analyses AnalysisStore
	turns    TurnStore
	llm      Generator
	log      *logrus.Logger

	retryDelay time.Duration
	locks      keyedMutex
}

// NewChatService creates a ChatService.
func NewChatService(
	datasets DatasetReader,
	analyses AnalysisStore,
	turns TurnStore,
	generator Generator,
	log *logrus.Logger,
) *ChatService {
	return &ChatService{
		datasets:   datasets,
		analyses:   analyses,
		turns:      turns,
		llm:        generator,
		log:        log,
		retryDelay: defaultLLMRetryDelay,
	}
}

// AnswerQuestion answers a question against the dataset's ready analysis and
// persists the resulting turn. The analysis must be ready; a missing or
// unfinished analysis yields ErrAnalysisNotReady and no turn is stored.
// A backend failure after the single retry also stores no turn.
func (s *ChatService) AnswerQuestion(ctx context.Context, accountID, datasetID, question string) (*models.ChatTurn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, models.ErrMissingQuestion
	}

	if len(question) > models.MaxQuestionLen {
		return nil, models.ErrFieldTooLong("question", models.MaxQuestionLen)
	}

	datasetID = canonicalID(datasetID)

	unlock := s.locks.Lock(datasetID)
	defer unlock()

	if _, err := s.datasets.GetDataset(ctx, accountID, datasetID); err != nil {
		return nil, err
	}

	analysis, err := s.analyses.GetByDataset(ctx, accountID, datasetID)
	if err != nil {
		if errors.Is(err, models.ErrAnalysisNotFound) {
			return nil, models.ErrAnalysisNotReady
		}

		return nil, err
	}

	if !analysis.Ready() {
		return nil, models.ErrAnalysisNotReady
	}

	window, err := s.turns.Window(ctx, accountID, datasetID, analysis.ID, models.ContextWindowTurns)
	if err != nil {
		return nil, err
	}

	answer, err := retryGenerate(ctx, s.retryDelay, func(ctx context.Context) (string, error) {
		out, genErr := s.llm.Complete(ctx, chatPrompt(analysis, window, question))
		if genErr != nil {
			metrics.LLMCalls.WithLabelValues("error").Inc()

			return "", genErr
		}

		metrics.LLMCalls.WithLabelValues("ok").Inc()

		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("answering question: %w: %w", models.ErrUpstreamUnavailable, err)
	}

	turn := &models.ChatTurn{
		DatasetID:  datasetID,
		AnalysisID: analysis.ID,
		AccountID:  analysis.AccountID,
		Question:   question,
		Answer:     strings.TrimSpace(answer),
	}

	evicted, err := s.turns.AppendTurn(ctx, turn)
	if err != nil {
		return nil, err
	}

	if evicted > 0 {
		metrics.TurnEvictions.Add(float64(evicted))
	}

	s.log.WithFields(logrus.Fields{
		"dataset_id": datasetID,
		"turn_id":    turn.ID,
		"evicted":    evicted,
	}).Info("chat turn recorded")

	return turn, nil
}

// GetHistory returns a page of the dataset's retained turns, oldest first.
func (s *ChatService) GetHistory(ctx context.Context, accountID, datasetID string, limit, offset int) ([]models.ChatTurn, bool, error) {
	if _, err := s.datasets.GetDataset(ctx, accountID, datasetID); err != nil {
		return nil, false, err
	}

	return s.turns.GetHistory(ctx, accountID, datasetID, limit, offset)
}
