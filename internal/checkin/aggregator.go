// Package checkin assembles check-in sessions from feature completions.
//
// The aggregator never performs I/O. Each operation validates against the
// session's age profile, applies the change to a copy and returns the copy;
// the caller's session is left untouched when an operation fails.
package checkin

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/emocheck/internal/ageprofile"
	"github.com/thebtf/emocheck/internal/catalog"
	"github.com/thebtf/emocheck/internal/privacy"
	"github.com/thebtf/emocheck/pkg/models"
)

// quickMoodMaxAge is the oldest age that skips the intensity step.
const quickMoodMaxAge = 7

// Prompt ids whose answers feed derived session fields.
const (
	PromptTriggerReflection = "trigger_reflection"
	PromptCopingStrategy    = "coping_strategy"
	PromptSupportNeed       = "support_need"
	PromptSadSupport        = "sad_support"
	PromptAngerManagement   = "anger_management"

	// SupportRequested is the support_need answer that flags a session.
	SupportRequested = "Yes, right now"
)

// Result is the outcome of recording a feature completion.
// Next, when set, is the feature the flow should switch to.
type Result struct {
	Session *models.Session
	Next    *models.FeatureID
}

// Aggregator builds sessions against a catalog.
type Aggregator struct {
	cat   *catalog.Catalog
	now   func() time.Time
	newID func() string
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithIDGenerator overrides session and entry id generation.
func WithIDGenerator(newID func() string) Option {
	return func(a *Aggregator) { a.newID = newID }
}

// NewAggregator creates an aggregator over cat.
func NewAggregator(cat *catalog.Catalog, opts ...Option) *Aggregator {
	a := &Aggregator{
		cat:   cat,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Catalog returns the catalog the aggregator validates against.
func (a *Aggregator) Catalog() *catalog.Catalog {
	return a.cat
}

// Start opens a new active session.
func (a *Aggregator) Start(patientID string, age int) *models.Session {
	return &models.Session{
		ID:                a.newID(),
		PatientID:         patientID,
		AgeAtSession:      ageprofile.Clamp(age),
		StartTime:         a.now().UTC(),
		Status:            models.SessionStatusActive,
		CompletedFeatures: []models.FeatureID{},
	}
}

// Profile resolves the age profile of a session.
func (a *Aggregator) Profile(s *models.Session) models.AgeProfile {
	return ageprofile.Resolve(s.AgeAtSession)
}

// RecordFeatureCompletion merges a feature payload into a copy of the session.
func (a *Aggregator) RecordFeatureCompletion(s *models.Session, p Payload) (Result, error) {
	if s == nil || p == nil {
		return Result{}, fmt.Errorf("%w: missing session or payload", models.ErrInvalidPayload)
	}
	if s.Closed() {
		return Result{}, fmt.Errorf("%w: session %s is %s", models.ErrSessionClosed, s.ID, s.Status)
	}

	profile := a.Profile(s)
	feature := p.Feature()
	if !profile.Allows(feature) {
		log.Debug().
			Str("session", s.ID).
			Str("feature", string(feature)).
			Int("age", profile.Age).
			Msg("Feature rejected for age")
		return Result{}, fmt.Errorf("%w: %s at age %d", models.ErrInvalidFeatureForAge, feature, profile.Age)
	}

	next := s.Clone()
	now := a.now().UTC()

	var err error
	switch v := p.(type) {
	case MoodPayload:
		err = a.applyMood(next, profile, v, now)
	case ColorsPayload:
		err = a.applyColors(next, profile, v)
	case ExpressionPayload:
		err = a.applyExpression(next, profile, v, now)
	case SafeSpacePayload:
		err = a.applySafeSpace(next, profile, v)
	case PromptsPayload:
		err = a.applyPrompts(next, v)
	case JournalPayload:
		next.Notes = privacy.Clean(v.Note)
	default:
		err = fmt.Errorf("%w: unsupported payload %T", models.ErrInvalidPayload, p)
	}
	if err != nil {
		return Result{}, err
	}

	if !next.HasCompleted(feature) {
		next.CompletedFeatures = append(next.CompletedFeatures, feature)
	}

	res := Result{Session: next}
	if feature == models.FeatureMood && profile.AutoAdvance {
		colors := models.FeatureColors
		res.Next = &colors
	}
	return res, nil
}

func (a *Aggregator) applyMood(s *models.Session, profile models.AgeProfile, p MoodPayload, now time.Time) error {
	if s.Mood != nil {
		return fmt.Errorf("%w: %s", models.ErrMoodRecorded, s.Mood.MoodID)
	}
	mood, ok := a.cat.Mood(p.MoodID)
	if !ok {
		return fmt.Errorf("%w: unknown mood %q", models.ErrInvalidPayload, p.MoodID)
	}

	intensity := p.Intensity
	switch {
	case profile.Age <= quickMoodMaxAge, intensity == 0:
		intensity = mood.DefaultIntensity
	case intensity < models.ScaleMin || intensity > models.ScaleMax:
		return fmt.Errorf("%w: intensity %d out of range", models.ErrInvalidPayload, intensity)
	}

	s.Mood = &models.MoodSelection{
		MoodID:    mood.ID,
		Label:     mood.Label,
		Intensity: intensity,
		Timestamp: now,
	}
	return nil
}

func (a *Aggregator) applyColors(s *models.Session, profile models.AgeProfile, p ColorsPayload) error {
	if len(p.ColorIDs) == 0 {
		return fmt.Errorf("%w: no colors selected", models.ErrInvalidPayload)
	}
	picker := NewColorPicker(a.cat, profile.MaxColorSelections)
	if s.Colors != nil {
		for _, id := range s.Colors.ColorIDs {
			_, _ = picker.Add(id)
		}
	}
	for _, id := range p.ColorIDs {
		if _, err := picker.Toggle(id); err != nil {
			return err
		}
	}
	if len(picker.Selected()) == 0 {
		return fmt.Errorf("%w: every color was deselected", models.ErrInvalidPayload)
	}
	s.Colors = picker.Selection()
	return nil
}

// CheckExpression reports whether s may still record an expression in mode.
// Hosts call it before starting a device capture.
func (a *Aggregator) CheckExpression(s *models.Session, mode models.ExpressionMode) error {
	if s == nil {
		return fmt.Errorf("%w: missing session", models.ErrInvalidPayload)
	}
	if s.Closed() {
		return fmt.Errorf("%w: session %s is %s", models.ErrSessionClosed, s.ID, s.Status)
	}
	profile := a.Profile(s)
	if !profile.Allows(models.FeatureExpress) {
		return fmt.Errorf("%w: %s at age %d", models.ErrInvalidFeatureForAge, models.FeatureExpress, profile.Age)
	}
	return a.checkMode(profile, mode)
}

func (a *Aggregator) checkMode(profile models.AgeProfile, id models.ExpressionMode) error {
	mode, ok := a.cat.ExpressionMode(id)
	if !ok {
		return fmt.Errorf("%w: unknown expression mode %q", models.ErrInvalidPayload, id)
	}
	if profile.Age < mode.MinAge {
		return fmt.Errorf("%w: %s expression at age %d", models.ErrInvalidFeatureForAge, id, profile.Age)
	}
	return nil
}

func (a *Aggregator) applyExpression(s *models.Session, profile models.AgeProfile, p ExpressionPayload, now time.Time) error {
	if err := a.checkMode(profile, p.Mode); err != nil {
		return err
	}

	rec := &models.ExpressionRecord{Mode: p.Mode, Timestamp: now}
	switch p.Mode {
	case models.ExpressionWrite:
		rec.Text = privacy.Clean(p.Text)
		if rec.Text == "" {
			return fmt.Errorf("%w: empty written expression", models.ErrInvalidPayload)
		}
	default:
		if p.Ref == "" {
			return fmt.Errorf("%w: %s expression without content reference", models.ErrInvalidPayload, p.Mode)
		}
		rec.Ref = p.Ref
	}
	if p.Mode == models.ExpressionVoice {
		if p.DurationSeconds <= 0 {
			return fmt.Errorf("%w: voice note without duration", models.ErrInvalidPayload)
		}
		rec.DurationSeconds = p.DurationSeconds
	}
	s.Expression = rec
	return nil
}

func (a *Aggregator) applySafeSpace(s *models.Session, profile models.AgeProfile, p SafeSpacePayload) error {
	if len(p.ItemIDs) == 0 {
		return fmt.Errorf("%w: no safe-space items selected", models.ErrInvalidPayload)
	}
	builder := NewSafeSpaceBuilder(a.cat, profile.MaxSafeSpaceItems())
	if s.SafeSpace != nil {
		for _, id := range s.SafeSpace.ItemIDs {
			_, _ = builder.Add(id)
		}
	}
	for _, id := range p.ItemIDs {
		if _, err := builder.Toggle(id); err != nil {
			return err
		}
	}
	if len(builder.Selected()) == 0 {
		return fmt.Errorf("%w: every safe-space item was removed", models.ErrInvalidPayload)
	}
	s.SafeSpace = builder.Selection()
	return nil
}

func (a *Aggregator) applyPrompts(s *models.Session, p PromptsPayload) error {
	out := p.Outcome
	if out.TotalPrompts < len(out.Responses) {
		return fmt.Errorf("%w: %d responses for %d prompts", models.ErrInvalidPayload, len(out.Responses), out.TotalPrompts)
	}
	if out.CompletionRate < 0 || out.CompletionRate > 100 {
		return fmt.Errorf("%w: completion rate %.1f", models.ErrInvalidPayload, out.CompletionRate)
	}
	for _, r := range out.Responses {
		if r.PromptID == "" || r.Value.IsZero() {
			return fmt.Errorf("%w: empty prompt response", models.ErrInvalidPayload)
		}
	}

	s.PromptResponses = slices.Clone(out.Responses)
	s.PromptCompletionRate = out.CompletionRate
	s.Triggers = nil
	s.CopingStrategies = nil
	s.SupportNeeded = false
	for _, r := range out.Responses {
		switch r.PromptID {
		case PromptTriggerReflection:
			s.Triggers = append(s.Triggers, r.Value.String())
		case PromptCopingStrategy, PromptSadSupport, PromptAngerManagement:
			s.CopingStrategies = append(s.CopingStrategies, r.Value.String())
		case PromptSupportNeed:
			s.SupportNeeded = r.Value.String() == SupportRequested
		}
	}
	return nil
}

// Finish closes a session as completed. A session without a mood cannot be finished.
func (a *Aggregator) Finish(s *models.Session) (*models.Session, error) {
	if s.Closed() {
		return nil, fmt.Errorf("%w: session %s is %s", models.ErrSessionClosed, s.ID, s.Status)
	}
	if !s.Summarizable() {
		return nil, models.ErrNotSummarizable
	}
	next := s.Clone()
	end := a.now().UTC()
	next.EndTime = &end
	next.Status = models.SessionStatusCompleted
	return next, nil
}

// Abandon closes a session without completing it.
func (a *Aggregator) Abandon(s *models.Session) (*models.Session, error) {
	if s.Closed() {
		return nil, fmt.Errorf("%w: session %s is %s", models.ErrSessionClosed, s.ID, s.Status)
	}
	next := s.Clone()
	end := a.now().UTC()
	next.EndTime = &end
	next.Status = models.SessionStatusAbandoned
	return next, nil
}

// ToMoodEntry projects a summarizable session onto a mood entry.
func (a *Aggregator) ToMoodEntry(s *models.Session) (models.MoodEntry, error) {
	if !s.Summarizable() {
		return models.MoodEntry{}, models.ErrNotSummarizable
	}

	ts := s.Mood.Timestamp
	if s.EndTime != nil {
		ts = *s.EndTime
	}
	entry := models.MoodEntry{
		ID:        a.newID(),
		SessionID: s.ID,
		PatientID: s.PatientID,
		Timestamp: ts,
		Mood: models.EntryMood{
			Primary:   s.Mood.MoodID,
			Intensity: s.Mood.Intensity,
		},
		Colors:            []string{},
		AdaptiveResponses: slices.Clone(s.PromptResponses),
		Triggers:          slices.Clone(s.Triggers),
		CopingStrategies:  slices.Clone(s.CopingStrategies),
		SupportNeeded:     s.SupportNeeded,
	}
	if s.Colors != nil {
		entry.Colors = slices.Clone(s.Colors.ColorIDs)
		entry.Mood.Secondary = slices.Clone(s.Colors.Emotions)
	}
	if e := s.Expression; e != nil {
		data := e.Ref
		if e.Mode == models.ExpressionWrite {
			data = e.Text
		}
		entry.Expression = &models.EntryExpression{
			Type:            e.Mode.Kind(),
			Data:            data,
			DurationSeconds: e.DurationSeconds,
		}
	}
	if sp := s.SafeSpace; sp != nil {
		entry.SafeSpace = &models.EntrySafeSpace{
			Description: sp.Description,
			Items:       slices.Clone(sp.ItemIDs),
		}
	}
	return entry, nil
}
