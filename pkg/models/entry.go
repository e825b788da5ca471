// Package models contains domain models for emocheck.
package models

import "time"

// EntryMood is the mood part of a MoodEntry.
type EntryMood struct {
	Primary   string   `json:"primary"`
	Secondary []string `json:"secondary,omitempty"`
	Intensity int      `json:"intensity"`
}

// EntryExpression is the exported form of an ExpressionRecord.
type EntryExpression struct {
	Type            string `json:"type"`
	Data            string `json:"data"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

// EntrySafeSpace is the exported form of a SafeSpaceSelection.
type EntrySafeSpace struct {
	Description string   `json:"description"`
	Items       []string `json:"items"`
}

// MoodEntry is the summarizable projection of one finished session.
// Histories of entries feed trend, alert and report computation.
type MoodEntry struct {
	Timestamp         time.Time        `json:"timestamp"`
	Expression        *EntryExpression `json:"expression,omitempty"`
	SafeSpace         *EntrySafeSpace  `json:"safe_space,omitempty"`
	ID                string           `json:"id"`
	SessionID         string           `json:"session_id"`
	PatientID         string           `json:"patient_id"`
	Mood              EntryMood        `json:"mood"`
	Colors            []string         `json:"colors"`
	AdaptiveResponses []PromptResponse `json:"adaptive_responses,omitempty"`
	Triggers          []string         `json:"triggers,omitempty"`
	CopingStrategies  []string         `json:"coping_strategies,omitempty"`
	SupportNeeded     bool             `json:"support_needed"`
}
