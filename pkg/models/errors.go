// Package models contains domain models for emocheck.
package models

import "errors"

var (
	// ErrInvalidFeatureForAge is returned when a feature or expression mode
	// is not enabled for the session's age profile.
	ErrInvalidFeatureForAge = errors.New("feature not available for age")

	// ErrInvalidPayload is returned when a feature payload fails validation.
	ErrInvalidPayload = errors.New("invalid feature payload")

	// ErrMoodRecorded is returned when a mood is recorded twice in one session.
	ErrMoodRecorded = errors.New("mood already recorded")

	// ErrSessionClosed is returned when a finished or abandoned session is modified.
	ErrSessionClosed = errors.New("session closed")

	// ErrSessionNotFound is returned by stores for unknown session ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNotSummarizable is returned when a session has no mood yet.
	ErrNotSummarizable = errors.New("session has no mood to summarize")

	// ErrInvalidResponse is returned when a prompt answer does not fit the prompt.
	ErrInvalidResponse = errors.New("invalid prompt response")
)
