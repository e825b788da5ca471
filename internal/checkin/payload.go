package checkin

import (
	"github.com/thebtf/emocheck/pkg/models"
)

// Payload is the data a feature reports on completion.
// The set of implementations is closed to this package.
type Payload interface {
	Feature() models.FeatureID
	isPayload()
}

// MoodPayload records the picked mood. Intensity 0 means the catalog default.
type MoodPayload struct {
	MoodID    string `json:"mood_id"`
	Intensity int    `json:"intensity,omitempty"`
}

// ColorsPayload lists color taps in order. Each tap toggles the color on the
// session's current selection.
type ColorsPayload struct {
	ColorIDs []string `json:"color_ids"`
}

// ExpressionPayload records a creative expression.
type ExpressionPayload struct {
	Mode            models.ExpressionMode `json:"mode"`
	Ref             string                `json:"ref,omitempty"`
	Text            string                `json:"text,omitempty"`
	DurationSeconds int                   `json:"duration_seconds,omitempty"`
}

// SafeSpacePayload lists safe-space item taps in order. Each tap toggles the
// item on the session's current selection.
type SafeSpacePayload struct {
	ItemIDs []string `json:"item_ids"`
}

// PromptsPayload carries a finished prompt walkthrough.
type PromptsPayload struct {
	Outcome models.PromptOutcome `json:"outcome"`
}

// JournalPayload records a free journal note.
type JournalPayload struct {
	Note string `json:"note"`
}

func (MoodPayload) Feature() models.FeatureID       { return models.FeatureMood }
func (ColorsPayload) Feature() models.FeatureID     { return models.FeatureColors }
func (ExpressionPayload) Feature() models.FeatureID { return models.FeatureExpress }
func (SafeSpacePayload) Feature() models.FeatureID  { return models.FeatureSpace }
func (PromptsPayload) Feature() models.FeatureID    { return models.FeaturePrompts }
func (JournalPayload) Feature() models.FeatureID    { return models.FeatureJournal }

func (MoodPayload) isPayload()       {}
func (ColorsPayload) isPayload()     {}
func (ExpressionPayload) isPayload() {}
func (SafeSpacePayload) isPayload()  {}
func (PromptsPayload) isPayload()    {}
func (JournalPayload) isPayload()    {}
