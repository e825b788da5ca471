package clinical

import (
	"fmt"
	"time"

	"github.com/thebtf/emocheck/pkg/models"
)

// Alert rule parameters.
const (
	AlertWindow = 7 * 24 * time.Hour

	lowIntensityMax       = 3
	lowIntensityThreshold = 3
	concerningThreshold   = 4
)

// Alert messages.
const (
	MsgLowMood    = "Patient has reported low mood intensity for 3+ recent sessions"
	MsgConcerning = "Multiple concerning mood reports in recent sessions - clinical review recommended"
)

var concerningMoods = map[string]bool{
	"sad":     true,
	"angry":   true,
	"worried": true,
}

// IsConcerningMood reports whether a mood counts toward the urgent rule.
func IsConcerningMood(moodID string) bool {
	return concerningMoods[moodID]
}

// RecentEntries returns the entries strictly newer than now minus the alert window.
func RecentEntries(entries []models.MoodEntry, now time.Time) []models.MoodEntry {
	cutoff := now.Add(-AlertWindow)
	var recent []models.MoodEntry
	for _, e := range entries {
		if e.Timestamp.After(cutoff) {
			recent = append(recent, e)
		}
	}
	return recent
}

// ComputeAlerts evaluates every rule over the trailing window ending at now.
// Alerts are stamped with now and ordered warning, urgent, info.
func ComputeAlerts(entries []models.MoodEntry, now time.Time) []models.ClinicalAlert {
	var low, concerning, support int
	for _, e := range RecentEntries(entries, now) {
		if e.Mood.Intensity <= lowIntensityMax {
			low++
		}
		if IsConcerningMood(e.Mood.Primary) {
			concerning++
		}
		if e.SupportNeeded {
			support++
		}
	}

	ts := now.UTC()
	alerts := []models.ClinicalAlert{}
	if low >= lowIntensityThreshold {
		alerts = append(alerts, models.ClinicalAlert{Level: models.AlertWarning, Message: MsgLowMood, Timestamp: ts})
	}
	if concerning >= concerningThreshold {
		alerts = append(alerts, models.ClinicalAlert{Level: models.AlertUrgent, Message: MsgConcerning, Timestamp: ts})
	}
	if support > 0 {
		alerts = append(alerts, models.ClinicalAlert{
			Level:     models.AlertInfo,
			Message:   fmt.Sprintf("Patient has requested support in %d recent session(s)", support),
			Timestamp: ts,
		})
	}
	return alerts
}
