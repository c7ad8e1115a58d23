package models

import (
	"time"

	"github.com/google/uuid"
)

// Retention policy for conversation turns. The storage cap is enforced by FIFO
// eviction on every write; the horizon is enforced at read time and by the
// periodic purge, so correctness never depends on the sweep having run.
const (
	TurnStorageCap     = 100
	TurnRetentionDays  = 30
	ContextWindowTurns = 10
)

// MaxQuestionLen bounds a single chat question.
const MaxQuestionLen = 2000

// RetentionHorizon is the turn age limit as a duration.
const RetentionHorizon = TurnRetentionDays * 24 * time.Hour

// ChatTurn is one question/answer pair tied to a dataset's analysis.
// Append-only; never mutated after creation. AnalysisID is empty once the
// analysis it was answered against has been superseded by a rerun.
type ChatTurn struct {
	ID         string    `json:"id"`
	DatasetID  string    `json:"dataset_id"`
	AnalysisID string    `json:"analysis_id,omitempty"`
	AccountID  uuid.UUID `json:"-"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChatRequest is the payload for asking a question against a dataset.
type ChatRequest struct {
	Question string `json:"question"`
}

// Validate checks ChatRequest fields.
func (r *ChatRequest) Validate() error {
	if r.Question == "" {
		return ErrMissingQuestion
	}

	if len(r.Question) > MaxQuestionLen {
		return ErrFieldTooLong("question", MaxQuestionLen)
	}

	return nil
}
