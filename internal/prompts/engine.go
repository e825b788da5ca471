// Package prompts generates adaptive follow-up questions and walks a child through them.
package prompts

import (
	"slices"

	"github.com/thebtf/emocheck/internal/catalog"
	"github.com/thebtf/emocheck/pkg/models"
)

// Engine generates prompt sequences from the catalog's prompt tables.
type Engine struct {
	cat *catalog.Catalog
}

// NewEngine creates an engine over cat.
func NewEngine(cat *catalog.Catalog) *Engine {
	return &Engine{cat: cat}
}

// Generate returns the prompts for a session: mood-specific prompts first,
// then the fixed base sequence. Sessions without a mood get the base sequence.
func (e *Engine) Generate(s *models.Session) []models.Prompt {
	moodID := ""
	if s != nil && s.Mood != nil {
		moodID = s.Mood.MoodID
	}
	return e.ForMood(moodID)
}

// ForMood returns the prompt sequence for a mood id. The result is a fresh copy.
func (e *Engine) ForMood(moodID string) []models.Prompt {
	var specific []models.Prompt
	if moodID != "" {
		specific = e.cat.MoodPrompts(moodID)
	}
	base := e.cat.BasePrompts()

	out := make([]models.Prompt, 0, len(specific)+len(base))
	for _, p := range specific {
		out = append(out, clonePrompt(p))
	}
	for _, p := range base {
		out = append(out, clonePrompt(p))
	}
	return out
}

func clonePrompt(p models.Prompt) models.Prompt {
	p.Options = slices.Clone(p.Options)
	return p
}
