package clinical

import (
	"slices"

	"github.com/thebtf/emocheck/pkg/models"
)

// Trend thresholds and the neutral result for an empty history.
const (
	trendThreshold = 0.5

	DefaultAverageIntensity = 5.0
	DefaultMood             = "calm"
)

// ComputeTrend compares the mean intensity of the chronologically first and
// second halves of entries. The input slice is not modified.
//
// The most common mood breaks ties by earliest chronological occurrence.
// With a single entry the first half is empty and the trend is stable.
func ComputeTrend(entries []models.MoodEntry) models.TrendSummary {
	if len(entries) == 0 {
		return models.TrendSummary{
			Direction:        models.TrendStable,
			AverageIntensity: DefaultAverageIntensity,
			MostCommonMood:   DefaultMood,
		}
	}

	sorted := sortedByTime(entries)
	mid := len(sorted) / 2
	first, second := sorted[:mid], sorted[mid:]

	direction := models.TrendStable
	if len(first) > 0 {
		diff := meanIntensity(second) - meanIntensity(first)
		switch {
		case diff > trendThreshold:
			direction = models.TrendImproving
		case diff < -trendThreshold:
			direction = models.TrendDeclining
		}
	}

	return models.TrendSummary{
		Direction:        direction,
		AverageIntensity: meanIntensity(sorted),
		MostCommonMood:   mostCommonMood(sorted),
	}
}

func sortedByTime(entries []models.MoodEntry) []models.MoodEntry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b models.MoodEntry) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return sorted
}

func meanIntensity(entries []models.MoodEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := 0
	for _, e := range entries {
		sum += e.Mood.Intensity
	}
	return float64(sum) / float64(len(entries))
}

// mostCommonMood expects chronologically sorted entries.
func mostCommonMood(sorted []models.MoodEntry) string {
	counts := make(map[string]int)
	var order []string
	for _, e := range sorted {
		if counts[e.Mood.Primary] == 0 {
			order = append(order, e.Mood.Primary)
		}
		counts[e.Mood.Primary]++
	}

	best, bestCount := DefaultMood, 0
	for _, mood := range order {
		if counts[mood] > bestCount {
			best, bestCount = mood, counts[mood]
		}
	}
	return best
}
