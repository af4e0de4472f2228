package handler

import (
	"net/http"

	"healthwatch/internal/geocode"
	"healthwatch/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StatsHandler struct {
	statsService *service.StatsService
	geocoder     *geocode.Client
	log          *zap.Logger
}

func NewStatsHandler(statsService *service.StatsService, geocoder *geocode.Client, log *zap.Logger) *StatsHandler {
	return &StatsHandler{statsService: statsService, geocoder: geocoder, log: log}
}

// Handles GET /api/stats - public aggregate counts, per-location breakdown
// and recent activity.
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.statsService.Stats(c.Request.Context())
	if err != nil {
		h.log.Error("stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Handles GET /api/geocode - cached proxy to the third-party geocoder used
// by the map view.
func (h *StatsHandler) Geocode(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	results, err := h.geocoder.Lookup(c.Request.Context(), query)
	if err != nil {
		h.log.Warn("geocode lookup failed", zap.String("q", query), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "geocoding service unavailable"})
		return
	}
	c.JSON(http.StatusOK, results)
}

// Handles GET /health - service liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
