// Package models contains domain models for emocheck.
package models

import "time"

// TrendDirection describes how mood intensity moved over a history.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// TrendSummary is derived on demand from raw mood entries.
type TrendSummary struct {
	Direction        TrendDirection `json:"trend"`
	MostCommonMood   string         `json:"most_common_mood"`
	AverageIntensity float64        `json:"average_intensity"`
}

// AlertLevel is the severity of a clinical alert.
type AlertLevel string

const (
	AlertInfo    AlertLevel = "info"
	AlertWarning AlertLevel = "warning"
	AlertUrgent  AlertLevel = "urgent"
)

// ClinicalAlert is an ephemeral rule result over recent entries.
type ClinicalAlert struct {
	Timestamp time.Time  `json:"timestamp"`
	Level     AlertLevel `json:"level"`
	Message   string     `json:"message"`
}

// ReportPeriod bounds a guardian report.
type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MoodTrendPoint is one entry as plotted in a guardian report.
type MoodTrendPoint struct {
	Date      string `json:"date"`
	Mood      string `json:"mood"`
	Intensity int    `json:"intensity"`
}

// ReportSummary aggregates the entries of a report period.
type ReportSummary struct {
	MostFrequentMood   string   `json:"most_frequent_mood"`
	ConcerningPatterns []string `json:"concerning_patterns"`
	PositivePatterns   []string `json:"positive_patterns"`
	TotalSessions      int      `json:"total_sessions"`
	AverageMoodScore   float64  `json:"average_mood_score"`
}

// GuardianReport summarizes a period of check-ins for a guardian or clinician.
type GuardianReport struct {
	GeneratedDate   time.Time        `json:"generated_date"`
	Period          ReportPeriod     `json:"report_period"`
	ID              string           `json:"id"`
	PatientID       string           `json:"patient_id"`
	Summary         ReportSummary    `json:"summary"`
	Recommendations []string         `json:"recommendations"`
	ClinicalAlerts  []ClinicalAlert  `json:"clinical_alerts"`
	MoodTrends      []MoodTrendPoint `json:"mood_trends"`
}

// WeeklyStats is the journal overview over the most recent week of entries.
type WeeklyStats struct {
	TopMood          string  `json:"top_mood"`
	AverageIntensity float64 `json:"average_intensity"`
	TotalEntries     int     `json:"total_entries"`
}

// InsightType classifies an insight.
type InsightType string

const (
	InsightTrend   InsightType = "trend"
	InsightPattern InsightType = "pattern"
	InsightAlert   InsightType = "alert"
)

// Insight is a human-readable observation about an entry history.
type Insight struct {
	ID          string      `json:"id"`
	Type        InsightType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Action      string      `json:"action,omitempty"`
	Confidence  float64     `json:"confidence"`
}
