// Package models contains domain models for emocheck.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// PromptType is the kind of answer a prompt expects.
type PromptType string

const (
	PromptChoice PromptType = "choice"
	PromptScale  PromptType = "scale"
	PromptText   PromptType = "text"
)

// Scale bounds shared by mood intensity and scale prompts.
const (
	ScaleMin = 1
	ScaleMax = 10
)

// Prompt is one adaptive follow-up question.
type Prompt struct {
	ID       string     `json:"id" yaml:"id"`
	Question string     `json:"question" yaml:"question"`
	Type     PromptType `json:"type" yaml:"type"`
	FollowUp string     `json:"follow_up,omitempty" yaml:"follow_up"`
	Options  []string   `json:"options,omitempty" yaml:"options"`
}

// HasOption reports whether opt is one of the prompt's choices.
func (p Prompt) HasOption(opt string) bool {
	for _, o := range p.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// ResponseValue is an answer: free text, a choice, or a 1-10 scale value.
type ResponseValue struct {
	Kind  PromptType
	Text  string
	Scale int
}

// TextValue builds a free-text answer.
func TextValue(s string) ResponseValue { return ResponseValue{Kind: PromptText, Text: s} }

// ChoiceValue builds a choice answer.
func ChoiceValue(s string) ResponseValue { return ResponseValue{Kind: PromptChoice, Text: s} }

// ScaleValue builds a scale answer.
func ScaleValue(n int) ResponseValue { return ResponseValue{Kind: PromptScale, Scale: n} }

// IsZero reports whether no answer is held.
func (v ResponseValue) IsZero() bool { return v.Kind == "" }

func (v ResponseValue) String() string {
	if v.Kind == PromptScale {
		return strconv.Itoa(v.Scale)
	}
	return v.Text
}

// MarshalJSON writes scale answers as numbers and everything else as strings.
func (v ResponseValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case "":
		return []byte("null"), nil
	case PromptScale:
		return json.Marshal(v.Scale)
	default:
		return json.Marshal(v.Text)
	}
}

// UnmarshalJSON accepts a JSON number (scale) or string (text).
// Choice answers decode as text; PromptResponse restores the kind from its type.
func (v *ResponseValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = ResponseValue{}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*v = ScaleValue(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("response value must be a number or string: %w", err)
	}
	*v = TextValue(s)
	return nil
}

// PromptResponse is a committed answer to one prompt.
type PromptResponse struct {
	Timestamp time.Time     `json:"timestamp"`
	PromptID  string        `json:"prompt_id"`
	Question  string        `json:"question"`
	Type      PromptType    `json:"type"`
	Value     ResponseValue `json:"value"`
}

// UnmarshalJSON restores the value kind from the prompt type.
func (r *PromptResponse) UnmarshalJSON(data []byte) error {
	type alias PromptResponse
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Type == PromptChoice && a.Value.Kind == PromptText {
		a.Value.Kind = PromptChoice
	}
	*r = PromptResponse(a)
	return nil
}

// PromptOutcome is the result of a finished prompt walkthrough.
type PromptOutcome struct {
	Timestamp      time.Time        `json:"timestamp"`
	Responses      []PromptResponse `json:"responses"`
	TotalPrompts   int              `json:"total_prompts"`
	CompletionRate float64          `json:"completion_rate"`
}
