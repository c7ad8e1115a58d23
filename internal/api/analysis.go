package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sheetsightai/sheetsight/internal/models"
)

// AnalysisHandler serves analysis run and status endpoints.
type AnalysisHandler struct {
	svc AnalysisRunner
	log *logrus.Logger
}

// NewAnalysisHandler creates an AnalysisHandler with the given service and logger.
func NewAnalysisHandler(svc AnalysisRunner, log *logrus.Logger) *AnalysisHandler {
	return &AnalysisHandler{svc: svc, log: log}
}

// Analyze handles POST /api/v1/datasets/:id/analyze. The pipeline runs
// asynchronously; the response is the processing record with 202 Accepted.
// A run already in flight for the dataset yields 409 Conflict.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	datasetID := c.Param("id")
	if err := validatePathID(datasetID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	accountID := getAccountID(c)
	if accountID == "" {
		return
	}

	analysis, err := h.svc.Run(c.Request.Context(), accountID, datasetID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrDatasetNotFound):
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "dataset not found")
		case errors.Is(err, models.ErrAnalysisInProgress):
			respondError(c, http.StatusConflict, ErrCodeConflict, "analysis already in progress for this dataset")
		default:
			h.log.WithError(err).Error("starting analysis")
			respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		}

		return
	}

	h.log.WithFields(logrus.Fields{
		"action": "analysis.run", "account_id": accountID,
		"dataset_id": datasetID, "analysis_id": analysis.ID,
	}).Info("audit")

	c.JSON(http.StatusAccepted, analysis)
}

// Get handles GET /api/v1/datasets/:id/analysis. The record reflects the
// current lifecycle state, including a failure message for failed runs.
func (h *AnalysisHandler) Get(c *gin.Context) {
	datasetID := c.Param("id")
	if err := validatePathID(datasetID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	accountID := getAccountID(c)
	if accountID == "" {
		return
	}

	analysis, err := h.svc.GetByDataset(c.Request.Context(), accountID, datasetID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrAnalysisNotFound):
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "no analysis for this dataset")
		case errors.Is(err, models.ErrDatasetNotFound):
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "dataset not found")
		default:
			h.log.WithError(err).Error("getting analysis")
			respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		}

		return
	}

	c.JSON(http.StatusOK, analysis)
}
