package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sheetsightai/sheetsight/internal/llm"
	"github.com/sheetsightai/sheetsight/internal/models"
)

// ChatHandler serves per-dataset conversation endpoints.
type ChatHandler struct {
	svc ChatProvider
	log *logrus.Logger
}

// NewChatHandler creates a ChatHandler with the given service and logger.
func NewChatHandler(svc ChatProvider, log *logrus.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, log: log}
}

// Ask handles POST /api/v1/datasets/:id/chat. Requires a ready analysis
// (412 otherwise); backend failures after retry yield 502 and no stored turn.
func (h *ChatHandler) Ask(c *gin.Context) {
	datasetID := c.Param("id")
	if err := validatePathID(datasetID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	accountID := getAccountID(c)
	if accountID == "" {
		return
	}

	turn, err := h.svc.AnswerQuestion(c.Request.Context(), accountID, datasetID, req.Question)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrMissingQuestion):
			respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
		case errors.Is(err, models.ErrDatasetNotFound):
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "dataset not found")
		case errors.Is(err, models.ErrAnalysisNotReady):
			respondError(c, http.StatusPreconditionFailed, ErrCodeNotReady, "analysis is not ready for this dataset")
		case errors.Is(err, models.ErrUpstreamUnavailable), errors.Is(err, llm.ErrCircuitOpen):
			h.log.WithError(err).Warn("chat backend unavailable")
			respondError(c, http.StatusBadGateway, ErrCodeUpstreamError, "model backend unavailable")
		default:
			h.log.WithError(err).Error("answering question")
			respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		}

		return
	}

	h.log.WithFields(logrus.Fields{
		"action": "chat.ask", "account_id": accountID,
		"dataset_id": datasetID, "turn_id": turn.ID,
	}).Info("audit")

	c.JSON(http.StatusOK, turn)
}

// History handles GET /api/v1/datasets/:id/chat/history. Turns come back
// oldest first, capped and age-filtered by the retention policy.
func (h *ChatHandler) History(c *gin.Context) {
	datasetID := c.Param("id")
	if err := validatePathID(datasetID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	accountID := getAccountID(c)
	if accountID == "" {
		return
	}

	limit := parseInt(c.DefaultQuery("limit", "50"), 50)
	offset := parseOffset(c.DefaultQuery("offset", "0"))

	turns, hasMore, err := h.svc.GetHistory(c.Request.Context(), accountID, datasetID, limit, offset)
	if err != nil {
		if errors.Is(err, models.ErrDatasetNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "dataset not found")

			return
		}

		h.log.WithError(err).Error("getting chat history")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"turns": turns, "has_more": hasMore})
}
