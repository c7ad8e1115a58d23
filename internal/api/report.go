package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sheetsightai/sheetsight/internal/models"
)

// ReportHandler serves PDF report export.
type ReportHandler struct {
	datasets DatasetRepository
	analyses AnalysisRunner
	renderer ReportRenderer
	log      *logrus.Logger
}

// NewReportHandler creates a ReportHandler with the given dependencies.
func NewReportHandler(datasets DatasetRepository, analyses AnalysisRunner, renderer ReportRenderer, log *logrus.Logger) *ReportHandler {
	return &ReportHandler{datasets: datasets, analyses: analyses, renderer: renderer, log: log}
}

// Export handles GET /api/v1/datasets/:id/report. A ready analysis is
// required; anything else yields 412 Precondition Failed.
func (h *ReportHandler) Export(c *gin.Context) {
	datasetID := c.Param("id")
	if err := validatePathID(datasetID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	accountID := getAccountID(c)
	if accountID == "" {
		return
	}

	dataset, err := h.datasets.GetDataset(c.Request.Context(), accountID, datasetID)
	if err != nil {
		if errors.Is(err, models.ErrDatasetNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "dataset not found")

			return
		}

		h.log.WithError(err).Error("getting dataset for report")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	analysis, err := h.analyses.GetByDataset(c.Request.Context(), accountID, datasetID)
	if err != nil && !errors.Is(err, models.ErrAnalysisNotFound) {
		h.log.WithError(err).Error("getting analysis for report")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	pdf, err := h.renderer.Render(analysis, dataset.Name)
	if err != nil {
		if errors.Is(err, models.ErrExportUnavailable) {
			respondError(c, http.StatusPreconditionFailed, ErrCodeNotReady, "analysis is not ready for this dataset")

			return
		}

		h.log.WithError(err).Error("rendering report")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action": "report.export", "account_id": accountID,
		"dataset_id": datasetID, "bytes": len(pdf),
	}).Info("audit")

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reportFilename(dataset.Name)))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// reportFilename derives a safe download filename from the dataset name.
func reportFilename(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, name)

	if sanitized == "" {
		sanitized = "dataset"
	}

	return sanitized + "-insights.pdf"
}
