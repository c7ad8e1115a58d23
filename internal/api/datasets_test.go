package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/sheetsightai/sheetsight/internal/api"
	"github.com/sheetsightai/sheetsight/internal/models"
)

func datasetRoutes(repo *mockDatasetRepo) *gin.Engine {
	r := newTestRouter()
	h := api.NewDatasetHandler(repo, testLogger())
	r.POST("/datasets", h.Ingest)
	r.GET("/datasets", h.List)
	r.GET("/datasets/:id", h.Get)
	r.DELETE("/datasets/:id", h.Delete)

	return r
}

const ingestBody = `{
	"name": "q1 sales",
	"columns": ["Region", "Total Price"],
	"rows": [
		{"Region": "A", "Total Price": 100},
		{"Region": "B", "Total Price": 300}
	]
}`

func TestDatasetIngest(t *testing.T) {
	var created *models.Dataset

	repo := &mockDatasetRepo{
		createFn: func(_ context.Context, accountID string, d *models.Dataset) error {
			if accountID != testAccountID {
				t.Errorf("accountID = %s", accountID)
			}

			d.ID = "ds-1"
			created = d

			return nil
		},
	}

	w := doRequest(datasetRoutes(repo), http.MethodPost, "/datasets", ingestBody)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	if created == nil || created.RowCount != 2 {
		t.Fatalf("created = %+v", created)
	}

	if !strings.Contains(created.Description, "2 rows") {
		t.Errorf("description not derived from rows: %q", created.Description)
	}
}

func TestDatasetIngest_Invalid(t *testing.T) {
	repo := &mockDatasetRepo{
		createFn: func(context.Context, string, *models.Dataset) error {
			t.Error("create must not be called for invalid input")

			return nil
		},
	}
	r := datasetRoutes(repo)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"missing name", `{"columns":["a"],"rows":[{"a":1}]}`},
		{"missing columns", `{"name":"x","rows":[{"a":1}]}`},
		{"missing rows", `{"name":"x","columns":["a"]}`},
		{"unknown row key", `{"name":"x","columns":["a"],"rows":[{"b":1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/datasets", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestDatasetList(t *testing.T) {
	repo := &mockDatasetRepo{
		listFn: func(_ context.Context, _ string, limit, offset int) ([]models.Dataset, bool, error) {
			if limit != 2 || offset != 1 {
				t.Errorf("limit = %d, offset = %d", limit, offset)
			}

			return []models.Dataset{{ID: "ds-1"}, {ID: "ds-2"}}, true, nil
		},
	}

	w := doRequest(datasetRoutes(repo), http.MethodGet, "/datasets?limit=2&offset=1", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Datasets []models.Dataset `json:"datasets"`
		HasMore  bool             `json:"has_more"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	if len(resp.Datasets) != 2 || !resp.HasMore {
		t.Errorf("resp = %+v", resp)
	}
}

func TestDatasetGet_NotFound(t *testing.T) {
	repo := &mockDatasetRepo{
		getFn: func(context.Context, string, string) (*models.Dataset, error) {
			return nil, models.ErrDatasetNotFound
		},
	}

	w := doRequest(datasetRoutes(repo), http.MethodGet, "/datasets/nope", "")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDatasetDelete(t *testing.T) {
	var deleted string

	repo := &mockDatasetRepo{
		deleteFn: func(_ context.Context, _, id string) error {
			deleted = id

			return nil
		},
	}

	w := doRequest(datasetRoutes(repo), http.MethodDelete, "/datasets/ds-1", "")

	if w.Code != http.StatusOK || deleted != "ds-1" {
		t.Errorf("status = %d, deleted = %q", w.Code, deleted)
	}
}
