package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetAgentSummary godoc
// @Summary      Aggregate view of tracked API consumers
// @Tags         admin
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200  {object}  tracker.Summary
// @Failure      401  {object}  map[string]string
// @Router       /api/admin/agents [get]
func (h *Handler) GetAgentSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracker.Summarize())
}

// GetRecentEvents godoc
// @Summary      Most recent tracked requests, newest first
// @Tags         admin
// @Produce      json
// @Security     ApiKeyAuth
// @Param        limit  query     int  false  "Maximum events to return (default 50)"
// @Success      200  {array}   tracker.Event
// @Failure      401  {object}  map[string]string
// @Router       /api/admin/events [get]
func (h *Handler) GetRecentEvents(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	c.JSON(http.StatusOK, h.tracker.RecentEvents(limit))
}

// GetAgentJourney godoc
// @Summary      Full request history for one consumer fingerprint
// @Tags         admin
// @Produce      json
// @Security     ApiKeyAuth
// @Param        fingerprint  path      string  true  "Caller fingerprint"
// @Success      200  {object}  tracker.Journey
// @Failure      404  {object}  map[string]string
// @Router       /api/admin/agents/{fingerprint} [get]
func (h *Handler) GetAgentJourney(c *gin.Context) {
	journey := h.tracker.AgentJourney(c.Param("fingerprint"))
	if journey == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown fingerprint"})
		return
	}
	c.JSON(http.StatusOK, journey)
}
