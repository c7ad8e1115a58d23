package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sheetsightai/sheetsight/internal/models"
	"github.com/sheetsightai/sheetsight/internal/store"
)

func newTestDataset(name string) *models.Dataset {
	return &models.Dataset{
		Name:        name,
		Description: "test dataset",
		Columns:     []string{"Region", "Revenue"},
		RowCount:    2,
		Rows: []map[string]any{
			{"Region": "North", "Revenue": 100.0},
			{"Region": "South", "Revenue": 200.0},
		},
	}
}

func createDataset(t *testing.T, s *store.DatasetStore, accountID, name string) *models.Dataset {
	t.Helper()

	d := newTestDataset(name)
	if err := s.CreateDataset(context.Background(), accountID, d); err != nil {
		t.Fatalf("creating dataset: %v", err)
	}

	return d
}

func TestDatasetStore_CreateAndGet(t *testing.T) {
	base, accountID := setupTestBase(t)
	s := store.NewDatasetStore(base)
	ctx := context.Background()

	d := createDataset(t, s, accountID, "sales")

	if d.ID == "" || d.CreatedAt.IsZero() {
		t.Fatalf("insert did not populate ID/CreatedAt: %+v", d)
	}

	got, err := s.GetDataset(ctx, accountID, d.ID)
	if err != nil {
		t.Fatalf("fetching dataset: %v", err)
	}

	if got.Name != "sales" || got.RowCount != 2 || len(got.Columns) != 2 {
		t.Errorf("unexpected dataset %+v", got)
	}

	if got.Rows != nil {
		t.Error("GetDataset should not load the row payload")
	}
}

func TestDatasetStore_GetRows(t *testing.T) {
	base, accountID := setupTestBase(t)
	s := store.NewDatasetStore(base)
	ctx := context.Background()

	d := createDataset(t, s, accountID, "sales")

	got, err := s.GetDatasetRows(ctx, accountID, d.ID)
	if err != nil {
		t.Fatalf("fetching dataset rows: %v", err)
	}

	if len(got.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got.Rows))
	}

	if got.Rows[0]["Region"] != "North" {
		t.Errorf("row payload mangled: %+v", got.Rows[0])
	}
}

func TestDatasetStore_GetNotFound(t *testing.T) {
	base, accountID := setupTestBase(t)
	s := store.NewDatasetStore(base)

	_, err := s.GetDataset(context.Background(), accountID, "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, models.ErrDatasetNotFound) {
		t.Fatalf("expected ErrDatasetNotFound, got %v", err)
	}
}

func TestDatasetStore_AccountIsolation(t *testing.T) {
	base, accountID := setupTestBase(t)
	_, otherAccount := setupTestBase(t)
	s := store.NewDatasetStore(base)
	ctx := context.Background()

	d := createDataset(t, s, accountID, "mine")

	if _, err := s.GetDataset(ctx, otherAccount, d.ID); !errors.Is(err, models.ErrDatasetNotFound) {
		t.Fatalf("cross-account read should 404, got %v", err)
	}

	if err := s.DeleteDataset(ctx, otherAccount, d.ID); !errors.Is(err, models.ErrDatasetNotFound) {
		t.Fatalf("cross-account delete should 404, got %v", err)
	}
}

func TestDatasetStore_ListPagination(t *testing.T) {
	base, accountID := setupTestBase(t)
	s := store.NewDatasetStore(base)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		createDataset(t, s, accountID, "d")
	}

	page, hasMore, err := s.ListDatasets(ctx, accountID, 2, 0)
	if err != nil {
		t.Fatalf("listing datasets: %v", err)
	}

	if len(page) != 2 || !hasMore {
		t.Errorf("first page = %d items, hasMore=%v; want 2, true", len(page), hasMore)
	}

	page, hasMore, err = s.ListDatasets(ctx, accountID, 2, 2)
	if err != nil {
		t.Fatalf("listing second page: %v", err)
	}

	if len(page) != 1 || hasMore {
		t.Errorf("second page = %d items, hasMore=%v; want 1, false", len(page), hasMore)
	}
}

func TestDatasetStore_DeleteCascades(t *testing.T) {
	base, accountID := setupTestBase(t)
	datasets := store.NewDatasetStore(base)
	analyses := store.NewAnalysisStore(base)
	ctx := context.Background()

	d := createDataset(t, datasets, accountID, "doomed")

	if _, err := analyses.UpsertPending(ctx, accountID, d.ID); err != nil {
		t.Fatalf("creating analysis: %v", err)
	}

	if err := datasets.DeleteDataset(ctx, accountID, d.ID); err != nil {
		t.Fatalf("deleting dataset: %v", err)
	}

	if _, err := analyses.GetByDataset(ctx, accountID, d.ID); !errors.Is(err, models.ErrAnalysisNotFound) {
		t.Fatalf("analysis should cascade with dataset, got %v", err)
	}
}
