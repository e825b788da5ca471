package clinical

import (
	"context"
	"fmt"
	"time"

	"github.com/thebtf/emocheck/pkg/models"
)

// InsightProvider turns an entry history into insights. Implementations
// may call out to external services; the check-in core does not depend on them.
type InsightProvider interface {
	Analyze(ctx context.Context, history []models.MoodEntry) ([]models.Insight, error)
}

// TrendInsights is a rule-based InsightProvider built on trend and alert rules.
type TrendInsights struct {
	Now func() time.Time
}

// confidenceSample is the history size at which rule insights reach full confidence.
const confidenceSample = 10

// Analyze implements InsightProvider.
func (t TrendInsights) Analyze(ctx context.Context, history []models.MoodEntry) ([]models.Insight, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return []models.Insight{}, nil
	}

	now := time.Now()
	if t.Now != nil {
		now = t.Now()
	}
	confidence := min(1.0, float64(len(history))/confidenceSample)

	trend := ComputeTrend(history)
	insights := []models.Insight{trendInsight(trend, confidence)}

	insights = append(insights, models.Insight{
		ID:          "pattern-mood",
		Type:        models.InsightPattern,
		Title:       "Most Common Mood",
		Description: fmt.Sprintf("The most common mood is %s, with an average intensity of %.1f.", trend.MostCommonMood, trend.AverageIntensity),
		Confidence:  confidence,
	})

	for i, a := range ComputeAlerts(history, now) {
		insights = append(insights, models.Insight{
			ID:          fmt.Sprintf("alert-%d", i+1),
			Type:        models.InsightAlert,
			Title:       alertTitle(a.Level),
			Description: a.Message,
			Confidence:  1,
		})
	}
	return insights, nil
}

func trendInsight(trend models.TrendSummary, confidence float64) models.Insight {
	in := models.Insight{ID: "trend", Type: models.InsightTrend, Confidence: confidence}
	switch trend.Direction {
	case models.TrendImproving:
		in.Title = "Positive Trend Detected"
		in.Description = "Mood intensity has gone up over recent check-ins."
		in.Action = "Keep up your current routine!"
	case models.TrendDeclining:
		in.Title = "Declining Trend Detected"
		in.Description = "Mood intensity has gone down over recent check-ins."
		in.Action = "Talk with a trusted adult about how things are going."
	default:
		in.Title = "Steady Mood"
		in.Description = "Mood intensity has stayed about the same over recent check-ins."
	}
	return in
}

func alertTitle(level models.AlertLevel) string {
	switch level {
	case models.AlertUrgent:
		return "Clinical Review Recommended"
	case models.AlertWarning:
		return "Low Mood Reported"
	default:
		return "Support Requested"
	}
}
