// Package models contains domain models for emocheck.
package models

// Complexity is the interaction complexity tier of an age band.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityMedium   Complexity = "medium"
	ComplexityAdvanced Complexity = "advanced"
)

// PromptStyle is the way questions are presented to a child.
type PromptStyle string

const (
	PromptStyleVisual         PromptStyle = "visual"
	PromptStyleInteractive    PromptStyle = "interactive"
	PromptStyleConversational PromptStyle = "conversational"
)

// AgeProfile is the configuration derived from a child's age.
// It is never stored; resolve it again whenever the age changes.
type AgeProfile struct {
	AgeRange               string      `json:"age_range"`
	Complexity             Complexity  `json:"complexity"`
	PromptStyle            PromptStyle `json:"prompt_style"`
	Features               []FeatureID `json:"features"`
	Age                    int         `json:"age"`
	MaxColorSelections     int         `json:"max_color_selections"`
	IconSize               int         `json:"icon_size"`
	AutoAdvance            bool        `json:"auto_advance"`
	RequiresGuardianReview bool        `json:"requires_guardian_review"`
}

// Allows reports whether the feature is enabled for this profile.
func (p AgeProfile) Allows(f FeatureID) bool {
	for _, enabled := range p.Features {
		if enabled == f {
			return true
		}
	}
	return false
}

// MaxSafeSpaceItems is the safe-space item cap for the profile's age.
func (p AgeProfile) MaxSafeSpaceItems() int {
	if p.Age <= 12 {
		return 6
	}
	return 8
}
