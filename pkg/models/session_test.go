// Package models contains domain models for emocheck.
package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// SessionSuite is a test suite for Session operations.
type SessionSuite struct {
	suite.Suite
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) fullSession() *Session {
	end := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	return &Session{
		ID:           "sess-1",
		PatientID:    "patient-1",
		AgeAtSession: 10,
		StartTime:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Status:       SessionStatusActive,
		Mood:         &MoodSelection{MoodID: "happy", Label: "Happy", Intensity: 8},
		Colors:       &ColorSelection{ColorIDs: []string{"yellow"}, Emotions: []string{"Happy"}},
		Expression:   &ExpressionRecord{Mode: ExpressionDraw, Ref: "drawing-1"},
		SafeSpace: &SafeSpaceSelection{
			ItemIDs: []string{"bed"},
			Items:   []SpaceItem{{ID: "bed", Name: "Cozy Bed", Category: SpaceFurniture}},
		},
		EndTime:           &end,
		CompletedFeatures: []FeatureID{FeatureMood, FeatureColors},
		PromptResponses:   []PromptResponse{{PromptID: "feeling_intensity", Type: PromptScale, Value: ScaleValue(7)}},
		Triggers:          []string{"school"},
		CopingStrategies:  []string{"Listen to music"},
	}
}

// TestClone_DeepCopy verifies that mutating a clone never leaks into the original.
func (s *SessionSuite) TestClone_DeepCopy() {
	orig := s.fullSession()
	c := orig.Clone()
	s.Equal(orig, c)

	c.Mood.Intensity = 2
	c.Colors.ColorIDs[0] = "gray"
	c.Expression.Ref = "other"
	c.SafeSpace.ItemIDs[0] = "toy"
	c.SafeSpace.Items[0].Name = "Other"
	*c.EndTime = c.EndTime.Add(time.Hour)
	c.CompletedFeatures[0] = FeatureJournal
	c.PromptResponses[0].PromptID = "changed"
	c.Triggers[0] = "changed"
	c.CopingStrategies[0] = "changed"

	s.Equal(8, orig.Mood.Intensity)
	s.Equal("yellow", orig.Colors.ColorIDs[0])
	s.Equal("drawing-1", orig.Expression.Ref)
	s.Equal("bed", orig.SafeSpace.ItemIDs[0])
	s.Equal("Cozy Bed", orig.SafeSpace.Items[0].Name)
	s.Equal(30, orig.EndTime.Minute())
	s.Equal(FeatureMood, orig.CompletedFeatures[0])
	s.Equal("feeling_intensity", orig.PromptResponses[0].PromptID)
	s.Equal("school", orig.Triggers[0])
	s.Equal("Listen to music", orig.CopingStrategies[0])
}

// TestClone_Nil tests cloning a nil session.
func (s *SessionSuite) TestClone_Nil() {
	var sess *Session
	s.Nil(sess.Clone())
}

// TestStateHelpers tests HasCompleted, Closed and Summarizable.
func (s *SessionSuite) TestStateHelpers() {
	sess := &Session{Status: SessionStatusActive, CompletedFeatures: []FeatureID{FeatureColors}}
	s.True(sess.HasCompleted(FeatureColors))
	s.False(sess.HasCompleted(FeatureMood))
	s.False(sess.Closed())
	s.False(sess.Summarizable())

	sess.Mood = &MoodSelection{MoodID: "calm", Intensity: 6}
	s.True(sess.Summarizable())

	sess.Status = SessionStatusAbandoned
	s.True(sess.Closed())
	sess.Status = SessionStatusCompleted
	s.True(sess.Closed())
}

// TestSessionJSON_RoundTripKeepsChoiceKind verifies stored sessions reload with typed answers.
func (s *SessionSuite) TestSessionJSON_RoundTripKeepsChoiceKind() {
	orig := &Session{
		ID: "sess-2",
		PromptResponses: []PromptResponse{
			{PromptID: "feeling_intensity", Type: PromptScale, Value: ScaleValue(4)},
			{PromptID: "coping_strategy", Type: PromptChoice, Value: ChoiceValue("Go outside")},
			{PromptID: "trigger_reflection", Type: PromptText, Value: TextValue("a test")},
		},
	}

	data, err := json.Marshal(orig)
	s.Require().NoError(err)

	var decoded Session
	s.Require().NoError(json.Unmarshal(data, &decoded))
	s.Require().Len(decoded.PromptResponses, 3)
	s.Equal(ScaleValue(4), decoded.PromptResponses[0].Value)
	s.Equal(ChoiceValue("Go outside"), decoded.PromptResponses[1].Value)
	s.Equal(TextValue("a test"), decoded.PromptResponses[2].Value)
}
