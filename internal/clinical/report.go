package clinical

import (
	"fmt"
	"time"

	"github.com/thebtf/emocheck/pkg/models"
)

var positiveMoods = map[string]bool{
	"happy":   true,
	"excited": true,
	"calm":    true,
}

// Report recommendations.
const (
	RecClinicalReview = "Schedule a clinical review to discuss recent check-ins"
	RecCheckInOften   = "Check in more often while mood intensity stays low"
	RecFollowUp       = "Follow up on the child's requests for support"
	RecKeepGoing      = "Keep up the regular check-in routine"
	RecStartCheckIns  = "Encourage the child to start regular check-ins"
)

// BuildGuardianReport summarizes the entries inside period for a guardian or
// clinician. Alerts are evaluated over the trailing window ending at now.
func BuildGuardianReport(patientID string, entries []models.MoodEntry, period models.ReportPeriod, now time.Time) models.GuardianReport {
	var inPeriod []models.MoodEntry
	for _, e := range entries {
		if !e.Timestamp.Before(period.Start) && !e.Timestamp.After(period.End) {
			inPeriod = append(inPeriod, e)
		}
	}
	sorted := sortedByTime(inPeriod)
	alerts := ComputeAlerts(entries, now)

	report := models.GuardianReport{
		ID:              fmt.Sprintf("report-%s-%s", patientID, now.UTC().Format("20060102T150405Z")),
		PatientID:       patientID,
		GeneratedDate:   now.UTC(),
		Period:          period,
		ClinicalAlerts:  alerts,
		Recommendations: []string{},
		MoodTrends:      make([]models.MoodTrendPoint, 0, len(sorted)),
		Summary: models.ReportSummary{
			TotalSessions:      len(sorted),
			ConcerningPatterns: []string{},
			PositivePatterns:   []string{},
		},
	}
	for _, e := range sorted {
		report.MoodTrends = append(report.MoodTrends, models.MoodTrendPoint{
			Date:      e.Timestamp.UTC().Format(time.DateOnly),
			Mood:      e.Mood.Primary,
			Intensity: e.Mood.Intensity,
		})
	}

	if len(sorted) == 0 {
		report.Recommendations = append(report.Recommendations, RecStartCheckIns)
		return report
	}

	trend := ComputeTrend(sorted)
	report.Summary.AverageMoodScore = trend.AverageIntensity
	report.Summary.MostFrequentMood = trend.MostCommonMood

	var low, concerning, positive, support, coping int
	for _, e := range sorted {
		if e.Mood.Intensity <= lowIntensityMax {
			low++
		}
		if IsConcerningMood(e.Mood.Primary) {
			concerning++
		}
		if positiveMoods[e.Mood.Primary] {
			positive++
		}
		if e.SupportNeeded {
			support++
		}
		if len(e.CopingStrategies) > 0 {
			coping++
		}
	}

	s := &report.Summary
	if low >= lowIntensityThreshold {
		s.ConcerningPatterns = append(s.ConcerningPatterns, fmt.Sprintf("Low mood intensity in %d sessions", low))
	}
	if concerning >= concerningThreshold {
		s.ConcerningPatterns = append(s.ConcerningPatterns, fmt.Sprintf("Sad, angry or worried in %d sessions", concerning))
	}
	if trend.Direction == models.TrendDeclining {
		s.ConcerningPatterns = append(s.ConcerningPatterns, "Mood intensity is declining")
	}
	if support > 0 {
		s.ConcerningPatterns = append(s.ConcerningPatterns, fmt.Sprintf("Asked for support in %d session(s)", support))
	}

	if positive*2 >= len(sorted) {
		s.PositivePatterns = append(s.PositivePatterns, fmt.Sprintf("Positive moods in %d of %d sessions", positive, len(sorted)))
	}
	if trend.Direction == models.TrendImproving {
		s.PositivePatterns = append(s.PositivePatterns, "Mood intensity is improving")
	}
	if coping > 0 {
		s.PositivePatterns = append(s.PositivePatterns, fmt.Sprintf("Used coping strategies in %d session(s)", coping))
	}

	var urgent, warning bool
	for _, a := range alerts {
		switch a.Level {
		case models.AlertUrgent:
			urgent = true
		case models.AlertWarning:
			warning = true
		}
	}
	if urgent {
		report.Recommendations = append(report.Recommendations, RecClinicalReview)
	}
	if warning || trend.Direction == models.TrendDeclining {
		report.Recommendations = append(report.Recommendations, RecCheckInOften)
	}
	if support > 0 {
		report.Recommendations = append(report.Recommendations, RecFollowUp)
	}
	if len(report.Recommendations) == 0 {
		report.Recommendations = append(report.Recommendations, RecKeepGoing)
	}
	return report
}

// WeeklyStats summarizes the seven most recent entries.
func WeeklyStats(entries []models.MoodEntry) models.WeeklyStats {
	sorted := sortedByTime(entries)
	if len(sorted) > 7 {
		sorted = sorted[len(sorted)-7:]
	}
	if len(sorted) == 0 {
		return models.WeeklyStats{TopMood: DefaultMood}
	}
	return models.WeeklyStats{
		AverageIntensity: meanIntensity(sorted),
		TopMood:          mostCommonMood(sorted),
		TotalEntries:     len(sorted),
	}
}
