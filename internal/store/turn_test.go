package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sheetsightai/sheetsight/internal/models"
	"github.com/sheetsightai/sheetsight/internal/store"
)

// setupTurnFixtures creates a dataset with a pending analysis and returns
// both IDs.
func setupTurnFixtures(t *testing.T, base store.Base, accountID string) (datasetID, analysisID string) {
	t.Helper()

	datasets := store.NewDatasetStore(base)
	analyses := store.NewAnalysisStore(base)

	d := createDataset(t, datasets, accountID, "chatty")

	a, err := analyses.UpsertPending(context.Background(), accountID, d.ID)
	if err != nil {
		t.Fatalf("creating analysis: %v", err)
	}

	return d.ID, a.ID
}

func appendTurn(t *testing.T, s *store.TurnStore, accountID, datasetID, analysisID, q, a string) (*models.ChatTurn, int64) {
	t.Helper()

	turn := &models.ChatTurn{
		DatasetID:  datasetID,
		AnalysisID: analysisID,
		AccountID:  uuid.MustParse(accountID),
		Question:   q,
		Answer:     a,
	}

	evicted, err := s.AppendTurn(context.Background(), turn)
	if err != nil {
		t.Fatalf("appending turn: %v", err)
	}

	return turn, evicted
}

func TestTurnStore_AppendAndHistory(t *testing.T) {
	base, accountID := setupTestBase(t)
	turns := store.NewTurnStore(base)
	datasetID, analysisID := setupTurnFixtures(t, base, accountID)
	ctx := context.Background()

	appendTurn(t, turns, accountID, datasetID, analysisID, "q1", "a1")
	appendTurn(t, turns, accountID, datasetID, analysisID, "q2", "a2")

	history, hasMore, err := turns.GetHistory(ctx, accountID, datasetID, 50, 0)
	if err != nil {
		t.Fatalf("fetching history: %v", err)
	}

	if len(history) != 2 || hasMore {
		t.Fatalf("history = %d turns, hasMore=%v", len(history), hasMore)
	}

	if history[0].Question != "q1" || history[1].Question != "q2" {
		t.Errorf("history not oldest-first: %+v", history)
	}
}

func TestTurnStore_CapEviction(t *testing.T) {
	base, accountID := setupTestBase(t)
	turns := store.NewTurnStore(base)
	datasetID, analysisID := setupTurnFixtures(t, base, accountID)
	ctx := context.Background()

	var totalEvicted int64
	for i := 0; i < models.TurnStorageCap+1; i++ {
		_, evicted := appendTurn(t, turns, accountID, datasetID, analysisID,
			fmt.Sprintf("q%d", i), "a")
		totalEvicted += evicted
	}

	if totalEvicted != 1 {
		t.Errorf("evicted = %d, want 1", totalEvicted)
	}

	history, hasMore, err := turns.GetHistory(ctx, accountID, datasetID, models.TurnStorageCap+10, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(history) != models.TurnStorageCap || hasMore {
		t.Fatalf("stored turns = %d, want %d", len(history), models.TurnStorageCap)
	}

	// The oldest turn is the one evicted.
	if history[0].Question != "q1" {
		t.Errorf("oldest surviving turn = %s, want q1", history[0].Question)
	}
}

func TestTurnStore_WindowChronological(t *testing.T) {
	base, accountID := setupTestBase(t)
	turns := store.NewTurnStore(base)
	datasetID, analysisID := setupTurnFixtures(t, base, accountID)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		appendTurn(t, turns, accountID, datasetID, analysisID, fmt.Sprintf("q%d", i), "a")
	}

	window, err := turns.Window(ctx, accountID, datasetID, analysisID, models.ContextWindowTurns)
	if err != nil {
		t.Fatalf("fetching window: %v", err)
	}

	if len(window) != models.ContextWindowTurns {
		t.Fatalf("window = %d turns, want %d", len(window), models.ContextWindowTurns)
	}

	if window[0].Question != "q5" || window[len(window)-1].Question != "q14" {
		t.Errorf("window should hold the latest turns oldest-first: %s .. %s",
			window[0].Question, window[len(window)-1].Question)
	}
}

func TestTurnStore_RetentionFiltersReads(t *testing.T) {
	base, accountID := setupTestBase(t)
	turns := store.NewTurnStore(base)
	datasetID, analysisID := setupTurnFixtures(t, base, accountID)
	ctx := context.Background()

	appendTurn(t, turns, accountID, datasetID, analysisID, "fresh", "a")

	// Backdate a turn past the retention horizon.
	stale, _ := appendTurn(t, turns, accountID, datasetID, analysisID, "stale", "a")

	_, err := base.Pool.Exec(ctx,
		"UPDATE chat_turns SET created_at = $2 WHERE id = $1",
		stale.ID, time.Now().Add(-models.RetentionHorizon-time.Hour))
	if err != nil {
		t.Fatalf("backdating turn: %v", err)
	}

	history, _, err := turns.GetHistory(ctx, accountID, datasetID, 50, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(history) != 1 || history[0].Question != "fresh" {
		t.Errorf("expired turn leaked into history: %+v", history)
	}

	window, err := turns.Window(ctx, accountID, datasetID, analysisID, 10)
	if err != nil {
		t.Fatal(err)
	}

	if len(window) != 1 {
		t.Errorf("expired turn leaked into window: %+v", window)
	}

	purged, err := turns.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("purging: %v", err)
	}

	if purged < 1 {
		t.Errorf("purged = %d, want at least 1", purged)
	}
}

func TestTurnStore_RerunClearsWindow(t *testing.T) {
	base, accountID := setupTestBase(t)
	turns := store.NewTurnStore(base)
	analyses := store.NewAnalysisStore(base)
	datasetID, analysisID := setupTurnFixtures(t, base, accountID)
	ctx := context.Background()

	appendTurn(t, turns, accountID, datasetID, analysisID, "old q", "old a")

	rerun, err := analyses.UpsertPending(ctx, accountID, datasetID)
	if err != nil {
		t.Fatalf("rerunning analysis: %v", err)
	}

	window, err := turns.Window(ctx, accountID, datasetID, rerun.ID, 10)
	if err != nil {
		t.Fatalf("fetching window: %v", err)
	}

	if len(window) != 0 {
		t.Errorf("superseded turns leaked into the new context window: %+v", window)
	}

	// Superseded turns stay visible in history until cap or retention
	// removes them.
	history, _, err := turns.GetHistory(ctx, accountID, datasetID, 50, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(history) != 1 || history[0].Question != "old q" {
		t.Errorf("history should retain superseded turns: %+v", history)
	}

	if history[0].AnalysisID != "" {
		t.Errorf("superseded turn should be detached from its analysis, got %q", history[0].AnalysisID)
	}

	appendTurn(t, turns, accountID, datasetID, rerun.ID, "new q", "new a")

	window, err = turns.Window(ctx, accountID, datasetID, rerun.ID, 10)
	if err != nil {
		t.Fatal(err)
	}

	if len(window) != 1 || window[0].Question != "new q" {
		t.Errorf("window should hold only current-analysis turns: %+v", window)
	}
}
