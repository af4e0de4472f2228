package handler

import (
	"errors"
	"fmt"
	"net/http"

	"healthwatch/internal/middleware"
	"healthwatch/internal/model"
	"healthwatch/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReportHandler struct {
	reportService *service.ReportService
	log           *zap.Logger
}

func NewReportHandler(reportService *service.ReportService, log *zap.Logger) *ReportHandler {
	return &ReportHandler{reportService: reportService, log: log}
}

// Handles GET /api/reports - returns all reports with submitter resolved
// (health workers and admins).
func (h *ReportHandler) GetReports(c *gin.Context) {
	reports, err := h.reportService.List(c.Request.Context())
	if err != nil {
		h.log.Error("report listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, reports)
}

// Handles POST /api/reports - creates one report, or count near-identical
// ones when a count is supplied.
func (h *ReportHandler) CreateReport(c *gin.Context) {
	var req model.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields: location, symptoms, and waterSource are required"})
		return
	}

	reports, err := h.reportService.Create(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("report creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error creating report"})
		return
	}

	if len(reports) == 1 {
		c.JSON(http.StatusCreated, reports[0])
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("Added %d cases successfully", len(reports)),
		"reports": reports,
	})
}

// Handles DELETE /api/reports/location/:location - removes every report for
// a location, matched case-insensitively (national admin only).
func (h *ReportHandler) DeleteByLocation(c *gin.Context) {
	location := c.Param("location")

	removed, err := h.reportService.DeleteByLocation(c.Request.Context(), location)
	if err != nil {
		if errors.Is(err, service.ErrNoReports) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No reports found for this location"})
			return
		}
		h.log.Error("location delete failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error deleting location"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Successfully removed village and %d associated reports", removed),
	})
}

// Handles GET /api/map-data - public anonymized report projection for the
// map view.
func (h *ReportHandler) GetMapData(c *gin.Context) {
	points, err := h.reportService.MapData(c.Request.Context())
	if err != nil {
		h.log.Error("map data failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, points)
}
