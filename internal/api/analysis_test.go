package api_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/sheetsightai/sheetsight/internal/api"
	"github.com/sheetsightai/sheetsight/internal/models"
)

func analysisRoutes(runner *mockAnalysisRunner) *gin.Engine {
	r := newTestRouter()
	h := api.NewAnalysisHandler(runner, testLogger())
	r.POST("/datasets/:id/analyze", h.Analyze)
	r.GET("/datasets/:id/analysis", h.Get)

	return r
}

func TestAnalyze_Accepted(t *testing.T) {
	runner := &mockAnalysisRunner{
		runFn: func(_ context.Context, _, datasetID string) (*models.Analysis, error) {
			return &models.Analysis{ID: "an-1", DatasetID: datasetID, Status: models.StatusProcessing}, nil
		},
	}

	w := doRequest(analysisRoutes(runner), http.MethodPost, "/datasets/ds-1/analyze", "")

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"in flight", models.ErrAnalysisInProgress, http.StatusConflict},
		{"unknown dataset", models.ErrDatasetNotFound, http.StatusNotFound},
		{"store failure", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockAnalysisRunner{
				runFn: func(context.Context, string, string) (*models.Analysis, error) {
					return nil, tt.err
				},
			}

			w := doRequest(analysisRoutes(runner), http.MethodPost, "/datasets/ds-1/analyze", "")

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestGetAnalysis(t *testing.T) {
	failure := "model backend unavailable"

	runner := &mockAnalysisRunner{
		getFn: func(context.Context, string, string) (*models.Analysis, error) {
			return &models.Analysis{ID: "an-1", Status: models.StatusFailed, Failure: &failure}, nil
		},
	}

	w := doRequest(analysisRoutes(runner), http.MethodGet, "/datasets/ds-1/analysis", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	body := w.Body.String()
	for _, want := range []string{`"status":"failed"`, failure} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q: %s", want, body)
		}
	}
}

func TestGetAnalysis_NotFound(t *testing.T) {
	runner := &mockAnalysisRunner{
		getFn: func(context.Context, string, string) (*models.Analysis, error) {
			return nil, models.ErrAnalysisNotFound
		},
	}

	w := doRequest(analysisRoutes(runner), http.MethodGet, "/datasets/ds-1/analysis", "")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
