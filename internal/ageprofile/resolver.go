// Package ageprofile maps a child's age to the check-in configuration.
package ageprofile

import (
	"github.com/thebtf/emocheck/pkg/models"
)

// Supported age range. Ages outside it are clamped.
const (
	MinAge = 4
	MaxAge = 16
)

// band is one fixed age band.
type band struct {
	ageRange    string
	complexity  models.Complexity
	style       models.PromptStyle
	features    []models.FeatureID
	maxAge      int
	maxColors   int
	iconSize    int
	autoAdvance bool
}

var bands = []band{
	{
		maxAge:      7,
		ageRange:    "4-7",
		complexity:  models.ComplexitySimple,
		style:       models.PromptStyleVisual,
		maxColors:   3,
		iconSize:    48,
		autoAdvance: true,
		features:    []models.FeatureID{models.FeatureMood, models.FeatureColors, models.FeatureJournal},
	},
	{
		maxAge:     12,
		ageRange:   "8-12",
		complexity: models.ComplexityMedium,
		style:      models.PromptStyleInteractive,
		maxColors:  5,
		iconSize:   40,
		features: []models.FeatureID{
			models.FeatureMood, models.FeatureColors, models.FeatureExpress,
			models.FeatureSpace, models.FeatureJournal,
		},
	},
	{
		maxAge:     MaxAge,
		ageRange:   "13-16",
		complexity: models.ComplexityAdvanced,
		style:      models.PromptStyleConversational,
		maxColors:  8,
		iconSize:   36,
		features: []models.FeatureID{
			models.FeatureMood, models.FeatureColors, models.FeatureExpress,
			models.FeatureSpace, models.FeaturePrompts, models.FeatureJournal,
		},
	},
}

// Clamp bounds age to [MinAge, MaxAge].
func Clamp(age int) int {
	return min(max(age, MinAge), MaxAge)
}

// Resolve returns the profile for age. It is a pure lookup; callers
// resolve again whenever the child's age changes.
func Resolve(age int) models.AgeProfile {
	age = Clamp(age)
	b := bands[len(bands)-1]
	for _, candidate := range bands {
		if age <= candidate.maxAge {
			b = candidate
			break
		}
	}

	features := make([]models.FeatureID, len(b.features))
	copy(features, b.features)

	return models.AgeProfile{
		Age:                    age,
		AgeRange:               b.ageRange,
		Features:               features,
		Complexity:             b.complexity,
		MaxColorSelections:     b.maxColors,
		PromptStyle:            b.style,
		IconSize:               b.iconSize,
		AutoAdvance:            b.autoAdvance,
		RequiresGuardianReview: age <= 12,
	}
}
