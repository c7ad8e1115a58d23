package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sheetsightai/sheetsight/internal/models"
	"github.com/sheetsightai/sheetsight/internal/tabular"
)

// DatasetHandler serves dataset ingest and lifecycle endpoints.
type DatasetHandler struct {
	repo DatasetRepository
	log  *logrus.Logger
}

// NewDatasetHandler creates a DatasetHandler with the given repository and logger.
func NewDatasetHandler(repo DatasetRepository, log *logrus.Logger) *DatasetHandler {
	return &DatasetHandler{repo: repo, log: log}
}

// Ingest handles POST /api/v1/datasets. Rows are normalized before storage so
// malformed uploads are rejected synchronously.
func (h *DatasetHandler) Ingest(c *gin.Context) {
	var req models.IngestDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	table, err := tabular.Normalize(req.Columns, req.Rows)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	accountID := getAccountID(c)
	if accountID == "" {
		return
	}

	dataset := &models.Dataset{
		Name:        req.Name,
		Description: table.Describe(),
		Columns:     req.Columns,
		RowCount:    len(req.Rows),
		Rows:        req.Rows,
	}

	if err := h.repo.CreateDataset(c.Request.Context(), accountID, dataset); err != nil {
		h.log.WithError(err).Error("creating dataset")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action": "dataset.ingest", "account_id": accountID,
		"dataset_id": dataset.ID, "rows": dataset.RowCount,
	}).Info("audit")

	c.JSON(http.StatusCreated, dataset)
}

// List handles GET /api/v1/datasets.
func (h *DatasetHandler) List(c *gin.Context) {
	accountID := getAccountID(c)
	if accountID == "" {
		return
	}

	limit := parseInt(c.DefaultQuery("limit", "50"), 50)
	offset := parseOffset(c.DefaultQuery("offset", "0"))

	datasets, hasMore, err := h.repo.ListDatasets(c.Request.Context(), accountID, limit, offset)
	if err != nil {
		h.log.WithError(err).Error("listing datasets")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"datasets": datasets, "has_more": hasMore})
}

// Get handles GET /api/v1/datasets/:id.
func (h *DatasetHandler) Get(c *gin.Context) {
	datasetID := c.Param("id")
	if err := validatePathID(datasetID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	accountID := getAccountID(c)
	if accountID == "" {
		return
	}

	dataset, err := h.repo.GetDataset(c.Request.Context(), accountID, datasetID)
	if err != nil {
		if errors.Is(err, models.ErrDatasetNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "dataset not found")

			return
		}

		h.log.WithError(err).Error("getting dataset")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, dataset)
}

// Delete handles DELETE /api/v1/datasets/:id. The analysis record and chat
// turns cascade with the dataset.
func (h *DatasetHandler) Delete(c *gin.Context) {
	datasetID := c.Param("id")
	if err := validatePathID(datasetID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	accountID := getAccountID(c)
	if accountID == "" {
		return
	}

	if err := h.repo.DeleteDataset(c.Request.Context(), accountID, datasetID); err != nil {
		if errors.Is(err, models.ErrDatasetNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "dataset not found")

			return
		}

		h.log.WithError(err).Error("deleting dataset")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action": "dataset.delete", "account_id": accountID, "dataset_id": datasetID,
	}).Info("audit")

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
