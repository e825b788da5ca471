// Package models contains domain models for emocheck.
package models

import "fmt"

// FeatureID identifies one check-in activity.
type FeatureID string

const (
	FeatureMood    FeatureID = "mood"
	FeatureColors  FeatureID = "colors"
	FeatureExpress FeatureID = "express"
	FeatureSpace   FeatureID = "space"
	FeaturePrompts FeatureID = "prompts"
	FeatureJournal FeatureID = "journal"
)

// AllFeatures lists every feature in display order.
var AllFeatures = []FeatureID{
	FeatureMood,
	FeatureColors,
	FeatureExpress,
	FeatureSpace,
	FeaturePrompts,
	FeatureJournal,
}

// featureMinAge is the youngest age at which a feature is offered.
var featureMinAge = map[FeatureID]int{
	FeatureMood:    4,
	FeatureColors:  4,
	FeatureJournal: 4,
	FeatureExpress: 8,
	FeatureSpace:   8,
	FeaturePrompts: 13,
}

// MinAge returns the minimum age for the feature, or 0 for unknown features.
func (f FeatureID) MinAge() int {
	return featureMinAge[f]
}

// Valid reports whether f is a known feature.
func (f FeatureID) Valid() bool {
	_, ok := featureMinAge[f]
	return ok
}

// ParseFeature converts a string into a FeatureID.
func ParseFeature(s string) (FeatureID, error) {
	f := FeatureID(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown feature %q", s)
	}
	return f, nil
}
