package prompts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/thebtf/emocheck/internal/catalog"
	"github.com/thebtf/emocheck/pkg/models"
)

// WalkthroughSuite is a test suite for the prompt walkthrough.
type WalkthroughSuite struct {
	suite.Suite
	engine *Engine
}

func (s *WalkthroughSuite) SetupTest() {
	s.engine = NewEngine(catalog.Default())
}

func TestWalkthroughSuite(t *testing.T) {
	suite.Run(t, new(WalkthroughSuite))
}

// TestAdvanceWithoutPending verifies advancing with nothing pending never moves.
func (s *WalkthroughSuite) TestAdvanceWithoutPending() {
	w := NewWalkthrough(s.engine.ForMood("calm"))
	for i := 0; i < 3; i++ {
		s.False(w.Advance())
		s.Equal(0, w.Index())
	}
	s.Empty(w.Responses())
}

// TestSkipNeverRecords verifies skipping discards the pending answer.
func (s *WalkthroughSuite) TestSkipNeverRecords() {
	w := NewWalkthrough(s.engine.ForMood("calm"))
	s.Require().NoError(w.Submit(models.ScaleValue(6)))
	s.True(w.Skip())
	s.Equal(1, w.Index())
	_, pending := w.Pending()
	s.False(pending)
	s.Empty(w.Responses())

	for !w.Completed() {
		w.Skip()
	}
	s.True(w.Completed())
	s.Equal(4, w.Index())
	s.Equal(0.0, w.CompletionRate())
	s.False(w.Skip())
	s.False(w.Advance())
}

// TestWorriedScenario skips the worry prompt and answers three of four base prompts.
func (s *WalkthroughSuite) TestWorriedScenario() {
	prompts := s.engine.ForMood("worried")
	s.Equal("worry_thoughts", prompts[0].ID)
	s.Equal(models.PromptText, prompts[0].Type)

	w := NewWalkthrough(prompts)
	s.True(w.Skip())

	s.Require().NoError(w.Submit(models.ScaleValue(4)))
	s.True(w.Advance())
	s.Require().NoError(w.Submit(models.TextValue("big test on friday")))
	s.True(w.Advance())
	s.Require().NoError(w.Submit(models.ChoiceValue("Take deep breaths")))
	s.True(w.Advance())
	s.True(w.Skip())

	s.True(w.Completed())
	s.Len(w.Responses(), 3)
	s.InDelta(60.0, w.CompletionRate(), 0.001)

	out := w.Outcome()
	s.Equal(5, out.TotalPrompts)
	s.Equal("feeling_intensity", out.Responses[0].PromptID)
	s.Equal(models.ChoiceValue("Take deep breaths"), out.Responses[2].Value)
}

// TestThreeOfFourBasePrompts checks the rate when no mood prompt is added.
func (s *WalkthroughSuite) TestThreeOfFourBasePrompts() {
	w := NewWalkthrough(s.engine.ForMood("calm"))
	s.Require().NoError(w.Submit(models.ScaleValue(6)))
	w.Advance()
	w.Skip()
	s.Require().NoError(w.Submit(models.ChoiceValue("Go outside")))
	w.Advance()
	s.Require().NoError(w.Submit(models.ChoiceValue("Maybe later")))
	w.Advance()

	s.True(w.Completed())
	s.InDelta(75.0, w.CompletionRate(), 0.001)
}

// TestSubmitValidation tests rejected answers leave pending unchanged.
func (s *WalkthroughSuite) TestSubmitValidation() {
	w := NewWalkthrough(s.engine.ForMood("calm"))

	s.Require().NoError(w.Submit(models.ScaleValue(5)))
	tests := []struct {
		name  string
		value models.ResponseValue
	}{
		{name: "scale too low", value: models.ScaleValue(0)},
		{name: "scale too high", value: models.ScaleValue(11)},
		{name: "text for scale", value: models.TextValue("7")},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.ErrorIs(w.Submit(tt.value), models.ErrInvalidResponse)
			v, ok := w.Pending()
			s.True(ok)
			s.Equal(models.ScaleValue(5), v)
		})
	}
	w.Advance()

	s.ErrorIs(w.Submit(models.TextValue("<private>nope</private>")), models.ErrInvalidResponse)
	s.ErrorIs(w.Submit(models.TextValue("   ")), models.ErrInvalidResponse)
	s.ErrorIs(w.Submit(models.ScaleValue(3)), models.ErrInvalidResponse)
	s.Require().NoError(w.Submit(models.TextValue(" my <private>brother</private> friend ")))
	v, _ := w.Pending()
	s.Equal(models.TextValue("my friend"), v)
	w.Advance()

	s.ErrorIs(w.Submit(models.ChoiceValue("Dance")), models.ErrInvalidResponse)
	s.Require().NoError(w.Submit(models.TextValue("Go outside")))
	v, _ = w.Pending()
	s.Equal(models.ChoiceValue("Go outside"), v)
}

// TestEmptyWalkthrough tests an empty prompt list.
func (s *WalkthroughSuite) TestEmptyWalkthrough() {
	w := NewWalkthrough(nil)
	s.True(w.Completed())
	_, ok := w.Current()
	s.False(ok)
	s.Equal(0.0, w.CompletionRate())
	s.ErrorIs(w.Submit(models.TextValue("x")), models.ErrInvalidResponse)
}

// TestReplay tests replaying keyed answers.
func (s *WalkthroughSuite) TestReplay() {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	w, err := Replay(s.engine.ForMood("sad"), map[string]models.ResponseValue{
		"sad_support":  models.TextValue("Hugs"),
		"support_need": models.TextValue("Yes, right now"),
	}, func() time.Time { return now })
	s.Require().NoError(err)
	s.True(w.Completed())
	s.Equal([]string{"sad_support", "support_need"}, []string{w.Responses()[0].PromptID, w.Responses()[1].PromptID})
	s.Equal(models.PromptChoice, w.Responses()[0].Value.Kind)
	s.Equal(now, w.Responses()[0].Timestamp)
	s.InDelta(40.0, w.CompletionRate(), 0.001)

	_, err = Replay(s.engine.ForMood("sad"), map[string]models.ResponseValue{
		"feeling_intensity": models.ScaleValue(42),
	}, nil)
	s.ErrorIs(err, models.ErrInvalidResponse)
}

// TestReplay_UnknownAnswerID tests that answers must target generated prompts.
func (s *WalkthroughSuite) TestReplay_UnknownAnswerID() {
	_, err := Replay(s.engine.ForMood("calm"), map[string]models.ResponseValue{
		"feeling_intensty": models.ScaleValue(4),
	}, nil)
	s.ErrorIs(err, models.ErrInvalidResponse)
	s.Contains(err.Error(), "feeling_intensty")

	_, err = Replay(s.engine.ForMood("calm"), map[string]models.ResponseValue{
		"feeling_intensity": models.ScaleValue(4),
		"nope":              models.TextValue("x"),
	}, nil)
	s.ErrorIs(err, models.ErrInvalidResponse, "one stray id rejects the whole replay")

	w, err := Replay(s.engine.ForMood("calm"), nil, nil)
	s.Require().NoError(err)
	s.Empty(w.Responses())
}
