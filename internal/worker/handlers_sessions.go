package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/emocheck/internal/checkin"
	"github.com/thebtf/emocheck/internal/clinical"
	"github.com/thebtf/emocheck/internal/prompts"
	"github.com/thebtf/emocheck/internal/worker/sse"
	"github.com/thebtf/emocheck/pkg/models"
)

type createSessionRequest struct {
	PatientID string `json:"patient_id"`
	Age       int    `json:"age"`
}

// FeatureResponse is the result of recording a feature.
type FeatureResponse struct {
	Session     *models.Session   `json:"session"`
	NextFeature *models.FeatureID `json:"next_feature"`
}

// FinishResponse is the result of finishing a session.
type FinishResponse struct {
	Session     *models.Session          `json:"session"`
	Entry       models.MoodEntry         `json:"entry"`
	Observation models.ObservationRecord `json:"observation"`
	Alerts      []models.ClinicalAlert   `json:"alerts"`
}

// promptAnswers is the request body of the prompts feature, keyed by prompt id.
type promptAnswers struct {
	Answers map[string]models.ResponseValue `json:"answers"`
}

func (s *Service) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	req.PatientID = strings.TrimSpace(req.PatientID)
	if req.PatientID == "" {
		respondError(w, r, fmt.Errorf("%w: patient_id is required", errBadRequest))
		return
	}

	sess := s.aggregator.Start(req.PatientID, req.Age)
	if err := s.sessions.Create(r.Context(), sess); err != nil {
		respondError(w, r, fmt.Errorf("create session: %w", err))
		return
	}
	s.metrics.SessionStarted(r.Context())
	s.sseBroadcaster.Publish(sse.Event{
		Type:      sse.EventSessionStarted,
		SessionID: sess.ID,
		PatientID: sess.PatientID,
		Data:      map[string]int{"age": sess.AgeAtSession},
	})

	log.Info().
		Str("session", sess.ID).
		Str("patient", sess.PatientID).
		Int("age", sess.AgeAtSession).
		Msg("Check-in started")

	respondJSON(w, http.StatusCreated, sess)
}

func (s *Service) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Service) handleGetPrompts(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s.engine.Generate(sess))
}

func (s *Service) handleRecordFeature(w http.ResponseWriter, r *http.Request) {
	feature, err := models.ParseFeature(chi.URLParam(r, "feature"))
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", models.ErrInvalidPayload, err))
		return
	}

	var (
		payload checkin.Payload
		answers promptAnswers
	)
	switch feature {
	case models.FeatureMood:
		var p checkin.MoodPayload
		err = decodeBody(w, r, &p)
		payload = p
	case models.FeatureColors:
		var p checkin.ColorsPayload
		err = decodeBody(w, r, &p)
		payload = p
	case models.FeatureExpress:
		var p checkin.ExpressionPayload
		err = decodeBody(w, r, &p)
		payload = p
	case models.FeatureSpace:
		var p checkin.SafeSpacePayload
		err = decodeBody(w, r, &p)
		payload = p
	case models.FeatureJournal:
		var p checkin.JournalPayload
		err = decodeBody(w, r, &p)
		payload = p
	case models.FeaturePrompts:
		err = decodeBody(w, r, &answers)
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	ctx := r.Context()
	s.mu.Lock()
	res, err := s.recordFeature(ctx, chi.URLParam(r, "id"), feature, payload, answers)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, models.ErrInvalidFeatureForAge) {
			s.metrics.PolicyViolation(ctx, feature)
		}
		respondError(w, r, err)
		return
	}

	s.respondRecorded(w, r, feature, res)
}

func (s *Service) respondRecorded(w http.ResponseWriter, r *http.Request, feature models.FeatureID, res checkin.Result) {
	s.metrics.FeatureRecorded(r.Context(), feature)
	s.sseBroadcaster.Publish(sse.Event{
		Type:      sse.EventFeatureRecorded,
		SessionID: res.Session.ID,
		PatientID: res.Session.PatientID,
		Data:      map[string]string{"feature": string(feature)},
	})
	respondJSON(w, http.StatusOK, FeatureResponse{Session: res.Session, NextFeature: res.Next})
}

// captureRequest is the optional body of a capture; voice needs a duration.
type captureRequest struct {
	DurationSeconds int `json:"duration_seconds"`
}

// handleCapture records a photo or voice expression through the host's
// capture device and stores the resulting reference on the session.
func (s *Service) handleCapture(w http.ResponseWriter, r *http.Request) {
	mode := models.ExpressionMode(chi.URLParam(r, "mode"))
	if mode != models.ExpressionPhoto && mode != models.ExpressionVoice {
		respondError(w, r, fmt.Errorf("%w: cannot capture %q", models.ErrInvalidPayload, mode))
		return
	}
	var req captureRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			respondError(w, r, err)
			return
		}
	}
	if mode == models.ExpressionVoice && req.DurationSeconds <= 0 {
		respondError(w, r, fmt.Errorf("%w: voice capture needs duration_seconds", models.ErrInvalidPayload))
		return
	}

	ctx := r.Context()
	id := chi.URLParam(r, "id")
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.aggregator.CheckExpression(sess, mode); err != nil {
		if errors.Is(err, models.ErrInvalidFeatureForAge) {
			s.metrics.PolicyViolation(ctx, models.FeatureExpress)
		}
		respondError(w, r, err)
		return
	}

	// The device may block, so capture runs outside the session lock.
	var payload checkin.ExpressionPayload
	switch mode {
	case models.ExpressionPhoto:
		img, err := s.capture.CaptureStill(ctx)
		if err != nil {
			respondError(w, r, fmt.Errorf("capture photo: %w", err))
			return
		}
		payload = checkin.PhotoPayload(img)
	case models.ExpressionVoice:
		clip, err := s.capture.RecordAudio(ctx, time.Duration(req.DurationSeconds)*time.Second)
		if err != nil {
			respondError(w, r, fmt.Errorf("record voice: %w", err))
			return
		}
		payload = checkin.VoicePayload(clip)
	}

	log.Debug().
		Str("session", id).
		Str("mode", string(mode)).
		Str("ref", payload.Ref).
		Msg("Expression captured")

	s.mu.Lock()
	res, err := s.recordFeature(ctx, id, models.FeatureExpress, payload, promptAnswers{})
	s.mu.Unlock()
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.respondRecorded(w, r, models.FeatureExpress, res)
}

// recordFeature must be called with s.mu held.
func (s *Service) recordFeature(ctx context.Context, id string, feature models.FeatureID, payload checkin.Payload, answers promptAnswers) (checkin.Result, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return checkin.Result{}, err
	}

	if feature == models.FeaturePrompts {
		p := checkin.PromptsPayload{}
		// Answers are only replayed when the feature is allowed; otherwise
		// the aggregator reports the age policy violation.
		if s.aggregator.Profile(sess).Allows(feature) && !sess.Closed() {
			walk, err := prompts.Replay(s.engine.Generate(sess), answers.Answers, s.now)
			if err != nil {
				return checkin.Result{}, err
			}
			p.Outcome = walk.Outcome()
		}
		payload = p
	}

	res, err := s.aggregator.RecordFeatureCompletion(sess, payload)
	if err != nil {
		return checkin.Result{}, err
	}
	if err := s.sessions.Update(ctx, res.Session); err != nil {
		return checkin.Result{}, fmt.Errorf("save session: %w", err)
	}
	return res, nil
}

func (s *Service) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.mu.Lock()
	resp, err := s.finishSession(ctx, chi.URLParam(r, "id"))
	s.mu.Unlock()
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.metrics.AlertsEmitted(ctx, resp.Alerts)
	s.sseBroadcaster.Publish(sse.Event{
		Type:      sse.EventSessionFinished,
		SessionID: resp.Session.ID,
		PatientID: resp.Session.PatientID,
		Data:      resp.Entry.Mood,
	})
	for _, alert := range resp.Alerts {
		s.sseBroadcaster.Publish(sse.Event{
			Type:      sse.EventAlert,
			SessionID: resp.Session.ID,
			PatientID: resp.Session.PatientID,
			Data:      alert,
		})
	}

	log.Info().
		Str("session", resp.Session.ID).
		Str("mood", resp.Entry.Mood.Primary).
		Int("alerts", len(resp.Alerts)).
		Msg("Check-in finished")

	respondJSON(w, http.StatusOK, resp)
}

// finishSession must be called with s.mu held.
func (s *Service) finishSession(ctx context.Context, id string) (FinishResponse, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return FinishResponse{}, err
	}
	done, err := s.aggregator.Finish(sess)
	if err != nil {
		return FinishResponse{}, err
	}
	entry, err := s.aggregator.ToMoodEntry(done)
	if err != nil {
		return FinishResponse{}, err
	}
	if err := s.sessions.Complete(ctx, done, &entry); err != nil {
		return FinishResponse{}, fmt.Errorf("complete session: %w", err)
	}

	now := s.now()
	recent, err := s.entries.ListSince(ctx, done.PatientID, now.Add(-clinical.AlertWindow))
	if err != nil {
		return FinishResponse{}, fmt.Errorf("load recent entries: %w", err)
	}

	return FinishResponse{
		Session:     done,
		Entry:       entry,
		Observation: s.observations.ToObservation(entry),
		Alerts:      clinical.ComputeAlerts(recent, now),
	}, nil
}

func (s *Service) handleAbandonSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.mu.Lock()
	sess, err := s.abandonSession(ctx, chi.URLParam(r, "id"))
	s.mu.Unlock()
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

// abandonSession must be called with s.mu held.
func (s *Service) abandonSession(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	closed, err := s.aggregator.Abandon(sess)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Update(ctx, closed); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return closed, nil
}
