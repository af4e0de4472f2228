package model

import (
	"time"

	"healthwatch/internal/store"
)

type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

type ReportStatus string

const (
	ReportPending       ReportStatus = "pending"
	ReportInvestigating ReportStatus = "investigating"
	ReportResolved      ReportStatus = "resolved"
)

// WaterSources is the fixed enumeration a report must draw from.
var WaterSources = []string{"River", "Well", "Community Well", "Pond", "Tap Water", "Other"}

func ValidWaterSource(s string) bool {
	for _, w := range WaterSources {
		if w == s {
			return true
		}
	}
	return false
}

// Report is a single observed case record. Immutable once created except for
// bulk deletion by location.
type Report struct {
	store.Meta
	UserID          string       `json:"userId"`
	State           string       `json:"state"`
	Location        string       `json:"location"`
	Symptoms        []string     `json:"symptoms"`
	WaterSource     string       `json:"waterSource"`
	Severity        Severity     `json:"severity"`
	Notes           string       `json:"notes,omitempty"`
	RegisteredCases int          `json:"registeredCases"`
	Status          ReportStatus `json:"status"`
	Timestamp       time.Time    `json:"timestamp"`
}

const ReportCollection = "reports"

// ReportRefs declares the report's reference fields for population.
var ReportRefs = store.RefTable{
	"userId": UserCollection,
}

type CreateReportRequest struct {
	State           string   `json:"state"`
	Location        string   `json:"location" binding:"required"`
	Symptoms        []string `json:"symptoms" binding:"required,min=1"`
	WaterSource     string   `json:"waterSource" binding:"required"`
	Severity        Severity `json:"severity"`
	Notes           string   `json:"notes"`
	Count           int      `json:"count"`
	RegisteredCases int      `json:"registeredCases"`
}

// MapPoint is the anonymized projection served to the public map view.
type MapPoint struct {
	Location        string    `json:"location"`
	State           string    `json:"state"`
	Symptoms        []string  `json:"symptoms"`
	WaterSource     string    `json:"waterSource"`
	Severity        Severity  `json:"severity"`
	RegisteredCases int       `json:"registeredCases"`
	Timestamp       time.Time `json:"timestamp"`
}

func (r *Report) MapPoint() MapPoint {
	return MapPoint{
		Location:        r.Location,
		State:           r.State,
		Symptoms:        r.Symptoms,
		WaterSource:     r.WaterSource,
		Severity:        r.Severity,
		RegisteredCases: r.RegisteredCases,
		Timestamp:       r.Timestamp,
	}
}
