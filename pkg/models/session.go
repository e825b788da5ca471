// Package models contains domain models for emocheck.
package models

import (
	"slices"
	"time"
)

// SessionStatus represents the lifecycle state of a check-in session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusAbandoned SessionStatus = "abandoned"
)

// MoodSelection is the mood a child picked. Immutable once recorded.
type MoodSelection struct {
	Timestamp time.Time `json:"timestamp"`
	MoodID    string    `json:"mood_id"`
	Label     string    `json:"label"`
	Intensity int       `json:"intensity"`
}

// ColorSelection holds the picked color clouds and the emotion each one maps to.
type ColorSelection struct {
	ColorIDs []string `json:"color_ids"`
	Emotions []string `json:"emotions"`
}

// ExpressionMode is one way of expressing a feeling.
type ExpressionMode string

const (
	ExpressionDraw  ExpressionMode = "draw"
	ExpressionPhoto ExpressionMode = "photo"
	ExpressionVoice ExpressionMode = "voice"
	ExpressionWrite ExpressionMode = "write"
)

// Kind returns the record variant name used in exported entries.
func (m ExpressionMode) Kind() string {
	switch m {
	case ExpressionDraw:
		return "drawing"
	case ExpressionPhoto:
		return "photo"
	case ExpressionVoice:
		return "voice"
	case ExpressionWrite:
		return "text"
	default:
		return ""
	}
}

// ExpressionRecord is a captured creative expression. Ref points at the
// stored drawing, photo or audio clip; Text carries written expressions.
type ExpressionRecord struct {
	Timestamp       time.Time      `json:"timestamp"`
	Mode            ExpressionMode `json:"mode"`
	Ref             string         `json:"ref,omitempty"`
	Text            string         `json:"text,omitempty"`
	DurationSeconds int            `json:"duration_seconds,omitempty"`
}

// SpaceCategory groups safe-space items.
type SpaceCategory string

const (
	SpaceFurniture  SpaceCategory = "furniture"
	SpaceDecoration SpaceCategory = "decoration"
	SpaceNature     SpaceCategory = "nature"
	SpaceComfort    SpaceCategory = "comfort"
)

// SpaceCategories lists the categories in description order.
var SpaceCategories = []SpaceCategory{SpaceFurniture, SpaceDecoration, SpaceNature, SpaceComfort}

// SpaceItem is one selected safe-space item.
type SpaceItem struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Category SpaceCategory `json:"category"`
}

// SafeSpaceSelection is the safe space a child assembled.
type SafeSpaceSelection struct {
	Description string      `json:"description"`
	ItemIDs     []string    `json:"item_ids"`
	Items       []SpaceItem `json:"items"`
}

// Session is one check-in's accumulated state across features.
type Session struct {
	StartTime            time.Time           `json:"start_time"`
	Mood                 *MoodSelection      `json:"mood,omitempty"`
	Colors               *ColorSelection     `json:"colors,omitempty"`
	Expression           *ExpressionRecord   `json:"expression,omitempty"`
	SafeSpace            *SafeSpaceSelection `json:"safe_space,omitempty"`
	EndTime              *time.Time          `json:"end_time,omitempty"`
	ID                   string              `json:"id"`
	PatientID            string              `json:"patient_id"`
	Status               SessionStatus       `json:"status"`
	Notes                string              `json:"notes,omitempty"`
	CompletedFeatures    []FeatureID         `json:"completed_features"`
	PromptResponses      []PromptResponse    `json:"prompt_responses,omitempty"`
	Triggers             []string            `json:"triggers,omitempty"`
	CopingStrategies     []string            `json:"coping_strategies,omitempty"`
	PromptCompletionRate float64             `json:"prompt_completion_rate,omitempty"`
	AgeAtSession         int                 `json:"age_at_session"`
	SupportNeeded        bool                `json:"support_needed"`
}

// HasCompleted reports whether the feature was already completed.
func (s *Session) HasCompleted(f FeatureID) bool {
	return slices.Contains(s.CompletedFeatures, f)
}

// Closed reports whether the session was finished or abandoned.
func (s *Session) Closed() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusAbandoned
}

// Summarizable reports whether the session carries enough data for a clinical summary.
func (s *Session) Summarizable() bool {
	return s.Mood != nil
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Mood != nil {
		m := *s.Mood
		c.Mood = &m
	}
	if s.Colors != nil {
		c.Colors = &ColorSelection{
			ColorIDs: slices.Clone(s.Colors.ColorIDs),
			Emotions: slices.Clone(s.Colors.Emotions),
		}
	}
	if s.Expression != nil {
		e := *s.Expression
		c.Expression = &e
	}
	if s.SafeSpace != nil {
		c.SafeSpace = &SafeSpaceSelection{
			Description: s.SafeSpace.Description,
			ItemIDs:     slices.Clone(s.SafeSpace.ItemIDs),
			Items:       slices.Clone(s.SafeSpace.Items),
		}
	}
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	c.CompletedFeatures = slices.Clone(s.CompletedFeatures)
	c.PromptResponses = slices.Clone(s.PromptResponses)
	c.Triggers = slices.Clone(s.Triggers)
	c.CopingStrategies = slices.Clone(s.CopingStrategies)
	return &c
}
