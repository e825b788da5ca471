package prompts

import (
	"fmt"
	"slices"
	"time"

	"github.com/thebtf/emocheck/internal/privacy"
	"github.com/thebtf/emocheck/pkg/models"
)

// Walkthrough presents prompts one at a time.
//
// Submit stores a pending answer without moving on. Advance commits the
// pending answer and moves to the next prompt; with nothing pending it does
// nothing. Skip moves on without committing, discarding any pending answer.
// After the last prompt the walkthrough is completed and ignores further input.
type Walkthrough struct {
	now       func() time.Time
	pending   *models.ResponseValue
	prompts   []models.Prompt
	responses []models.PromptResponse
	index     int
	completed bool
}

// NewWalkthrough starts a walkthrough over prompts. An empty list is
// completed immediately.
func NewWalkthrough(prompts []models.Prompt) *Walkthrough {
	return &Walkthrough{
		now:       time.Now,
		prompts:   slices.Clone(prompts),
		completed: len(prompts) == 0,
	}
}

// SetClock overrides the time source used for response timestamps.
func (w *Walkthrough) SetClock(now func() time.Time) {
	w.now = now
}

// Current returns the prompt being presented. It returns false once completed.
func (w *Walkthrough) Current() (models.Prompt, bool) {
	if w.completed {
		return models.Prompt{}, false
	}
	return w.prompts[w.index], true
}

// Index returns the position of the current prompt, or the prompt count once completed.
func (w *Walkthrough) Index() int {
	if w.completed {
		return len(w.prompts)
	}
	return w.index
}

// Completed reports whether every prompt was answered or skipped.
func (w *Walkthrough) Completed() bool {
	return w.completed
}

// Pending returns the answer waiting to be committed, if any.
func (w *Walkthrough) Pending() (models.ResponseValue, bool) {
	if w.pending == nil {
		return models.ResponseValue{}, false
	}
	return *w.pending, true
}

// Submit validates v against the current prompt and stores it as pending.
// Invalid answers return ErrInvalidResponse and leave the pending answer unchanged.
func (w *Walkthrough) Submit(v models.ResponseValue) error {
	p, ok := w.Current()
	if !ok {
		return fmt.Errorf("%w: walkthrough completed", models.ErrInvalidResponse)
	}

	var accepted models.ResponseValue
	switch p.Type {
	case models.PromptScale:
		if v.Kind != models.PromptScale || v.Scale < models.ScaleMin || v.Scale > models.ScaleMax {
			return fmt.Errorf("%w: %s expects a value from %d to %d", models.ErrInvalidResponse, p.ID, models.ScaleMin, models.ScaleMax)
		}
		accepted = v
	case models.PromptChoice:
		if v.Kind == models.PromptScale || !p.HasOption(v.Text) {
			return fmt.Errorf("%w: %q is not an option of %s", models.ErrInvalidResponse, v.String(), p.ID)
		}
		accepted = models.ChoiceValue(v.Text)
	default:
		if v.Kind == models.PromptScale {
			return fmt.Errorf("%w: %s expects text", models.ErrInvalidResponse, p.ID)
		}
		cleaned := privacy.Clean(v.Text)
		if cleaned == "" {
			return fmt.Errorf("%w: %s answer is empty", models.ErrInvalidResponse, p.ID)
		}
		accepted = models.TextValue(cleaned)
	}

	w.pending = &accepted
	return nil
}

// Advance commits the pending answer and moves on. It reports whether it moved.
func (w *Walkthrough) Advance() bool {
	p, ok := w.Current()
	if !ok || w.pending == nil {
		return false
	}
	w.responses = append(w.responses, models.PromptResponse{
		PromptID:  p.ID,
		Question:  p.Question,
		Type:      p.Type,
		Value:     *w.pending,
		Timestamp: w.now().UTC(),
	})
	w.next()
	return true
}

// Skip moves on without recording an answer. It reports whether it moved.
func (w *Walkthrough) Skip() bool {
	if w.completed {
		return false
	}
	w.next()
	return true
}

func (w *Walkthrough) next() {
	w.pending = nil
	if w.index+1 >= len(w.prompts) {
		w.completed = true
		return
	}
	w.index++
}

// Responses returns the committed answers in prompt order.
func (w *Walkthrough) Responses() []models.PromptResponse {
	return slices.Clone(w.responses)
}

// CompletionRate is the percentage of prompts answered.
func (w *Walkthrough) CompletionRate() float64 {
	if len(w.prompts) == 0 {
		return 0
	}
	return float64(len(w.responses)) * 100 / float64(len(w.prompts))
}

// Outcome summarizes the walkthrough for the session.
func (w *Walkthrough) Outcome() models.PromptOutcome {
	return models.PromptOutcome{
		Responses:      w.Responses(),
		TotalPrompts:   len(w.prompts),
		CompletionRate: w.CompletionRate(),
		Timestamp:      w.now().UTC(),
	}
}

// Replay runs a walkthrough over prompts with answers keyed by prompt id.
// Prompts without an answer are skipped. An answer for a prompt that was not
// generated, or the first invalid answer, aborts the replay.
func Replay(prompts []models.Prompt, answers map[string]models.ResponseValue, now func() time.Time) (*Walkthrough, error) {
	for id := range answers {
		if !slices.ContainsFunc(prompts, func(p models.Prompt) bool { return p.ID == id }) {
			return nil, fmt.Errorf("%w: no prompt %q in this walkthrough", models.ErrInvalidResponse, id)
		}
	}
	w := NewWalkthrough(prompts)
	if now != nil {
		w.SetClock(now)
	}
	for !w.Completed() {
		p, _ := w.Current()
		v, ok := answers[p.ID]
		if !ok || v.IsZero() {
			w.Skip()
			continue
		}
		if err := w.Submit(v); err != nil {
			return nil, err
		}
		w.Advance()
	}
	return w, nil
}
