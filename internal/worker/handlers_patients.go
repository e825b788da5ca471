package worker

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/thebtf/emocheck/internal/clinical"
	gormdb "github.com/thebtf/emocheck/internal/db/gorm"
	"github.com/thebtf/emocheck/pkg/models"
)

// weeklySample is the number of recent entries summarized by the weekly stats.
const weeklySample = 7

func (s *Service) history(r *http.Request) ([]models.MoodEntry, error) {
	limit := gormdb.ParseLimitParam(r, s.config.HistoryLimit)
	entries, err := s.entries.ListByPatient(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	return entries, nil
}

func (s *Service) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := gormdb.ParseLimitParam(r, s.config.HistoryLimit)
	sessions, err := s.sessions.ListByPatient(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sessions)
}

func (s *Service) handleTrend(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, clinical.ComputeTrend(entries))
}

func (s *Service) handleAlerts(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	entries, err := s.entries.ListSince(r.Context(), chi.URLParam(r, "id"), now.Add(-clinical.AlertWindow))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, clinical.ComputeAlerts(entries, now))
}

func (s *Service) handleReport(w http.ResponseWriter, r *http.Request) {
	now := s.now().UTC()
	days := gormdb.ParseDaysParam(r, s.config.ReportDays)
	period := models.ReportPeriod{Start: now.Add(-time.Duration(days) * 24 * time.Hour), End: now}

	// Alerts look back over the alert window even when the period is shorter.
	since := period.Start
	if w := now.Add(-clinical.AlertWindow); w.Before(since) {
		since = w
	}

	patientID := chi.URLParam(r, "id")
	entries, err := s.entries.ListSince(r.Context(), patientID, since)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, clinical.BuildGuardianReport(patientID, entries, period, now))
}

func (s *Service) handleWeekly(w http.ResponseWriter, r *http.Request) {
	entries, err := s.entries.ListByPatient(r.Context(), chi.URLParam(r, "id"), weeklySample)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, clinical.WeeklyStats(entries))
}

func (s *Service) handleInsights(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	insights, err := s.insights.Analyze(r.Context(), entries)
	if err != nil {
		respondError(w, r, fmt.Errorf("analyze: %w", err))
		return
	}
	respondJSON(w, http.StatusOK, insights)
}

func (s *Service) handleObservations(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	records := make([]models.ObservationRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, s.observations.ToObservation(e))
	}
	respondJSON(w, http.StatusOK, records)
}
