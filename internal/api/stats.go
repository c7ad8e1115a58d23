package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// StatsHandler serves account usage counters.
type StatsHandler struct {
	repo StatsRepository
	log  *logrus.Logger
}

// NewStatsHandler creates a StatsHandler with the given repository and logger.
func NewStatsHandler(repo StatsRepository, log *logrus.Logger) *StatsHandler {
	return &StatsHandler{repo: repo, log: log}
}

// GetStats handles GET /api/v1/stats.
func (h *StatsHandler) GetStats(c *gin.Context) {
	accountID := getAccountID(c)
	if accountID == "" {
		return
	}

	stats, err := h.repo.GetStats(c.Request.Context(), accountID)
	if err != nil {
		h.log.WithError(err).Error("getting stats")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, stats)
}
