package worker

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm/logger"

	"github.com/thebtf/emocheck/internal/checkin"
	"github.com/thebtf/emocheck/internal/clinical"
	"github.com/thebtf/emocheck/internal/config"
	gormdb "github.com/thebtf/emocheck/internal/db/gorm"
	"github.com/thebtf/emocheck/internal/metrics"
	"github.com/thebtf/emocheck/pkg/models"
)

type HandlersSuite struct {
	suite.Suite
	store *gormdb.Store
	svc   *Service
	now   time.Time
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersSuite))
}

func (s *HandlersSuite) SetupTest() {
	store, err := gormdb.NewStore(gormdb.Config{
		DSN:      filepath.Join(s.T().TempDir(), "worker.db"),
		LogLevel: logger.Silent,
	})
	s.Require().NoError(err)
	s.store = store
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	svc, err := New(Options{
		Version:  "test-version",
		Config:   config.Default(),
		Sessions: gormdb.NewSessionStore(store),
		Entries:  gormdb.NewEntryStore(store),
		Metrics:  metrics.New(),
		Now:      func() time.Time { return s.now },
	})
	s.Require().NoError(err)
	s.svc = svc
}

func (s *HandlersSuite) TearDownTest() {
	s.NoError(s.store.Close())
}

func (s *HandlersSuite) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.svc.Handler().ServeHTTP(rec, req)
	return rec
}

func (s *HandlersSuite) decode(rec *httptest.ResponseRecorder, v interface{}) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (s *HandlersSuite) start(patient string, age int) *models.Session {
	rec := s.do(http.MethodPost, "/api/sessions", map[string]interface{}{"patient_id": patient, "age": age})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var sess models.Session
	s.decode(rec, &sess)
	return &sess
}

func (s *HandlersSuite) record(id string, feature models.FeatureID, payload interface{}) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/api/sessions/"+id+"/features/"+string(feature), payload)
}

func (s *HandlersSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/api/health", nil)
	s.Equal(http.StatusOK, rec.Code)
	var body map[string]string
	s.decode(rec, &body)
	s.Equal("ok", body["status"])
	s.Equal("test-version", body["version"])
}

func (s *HandlersSuite) TestProfile() {
	rec := s.do(http.MethodGet, "/api/profile?age=6", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var p models.AgeProfile
	s.decode(rec, &p)
	s.Equal(models.ComplexitySimple, p.Complexity)
	s.Equal([]models.FeatureID{models.FeatureMood, models.FeatureColors, models.FeatureJournal}, p.Features)
	s.True(p.AutoAdvance)

	rec = s.do(http.MethodGet, "/api/profile?age=abc", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlersSuite) TestCatalog() {
	rec := s.do(http.MethodGet, "/api/catalog?age=10", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var c CatalogResponse
	s.decode(rec, &c)
	s.Len(c.Moods, 8)
	s.Len(c.Colors, 8)
	s.Len(c.SpaceItems, 12)
	s.Len(c.ExpressionModes, 2)
}

func (s *HandlersSuite) TestCreateSession_Validation() {
	rec := s.do(http.MethodPost, "/api/sessions", map[string]interface{}{"age": 9})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/sessions", map[string]interface{}{"patient_id": "p", "age": 9, "extra": true})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlersSuite) TestYoungChildFlow() {
	sess := s.start("p-young", 6)
	s.Equal(6, sess.AgeAtSession)

	rec := s.record(sess.ID, models.FeatureMood, map[string]interface{}{"mood_id": "happy", "intensity": 2})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var fr FeatureResponse
	s.decode(rec, &fr)
	s.Require().NotNil(fr.NextFeature)
	s.Equal(models.FeatureColors, *fr.NextFeature)
	s.Equal(8, fr.Session.Mood.Intensity)

	rec = s.record(sess.ID, models.FeatureExpress, map[string]interface{}{"mode": "draw", "ref": "d-1"})
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.record(sess.ID, models.FeatureMood, map[string]interface{}{"mood_id": "sad"})
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.record(sess.ID, models.FeatureColors, map[string]interface{}{"color_ids": []string{"yellow", "blue", "green", "pink"}})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &fr)
	s.Equal([]string{"yellow", "blue", "green"}, fr.Session.Colors.ColorIDs)
	s.Nil(fr.NextFeature)

	rec = s.do(http.MethodPost, "/api/sessions/"+sess.ID+"/finish", nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var fin FinishResponse
	s.decode(rec, &fin)
	s.Equal(models.SessionStatusCompleted, fin.Session.Status)
	s.Equal("happy", fin.Entry.Mood.Primary)
	s.Equal("Patient/p-young", fin.Observation.Subject.Reference)
	s.Empty(fin.Alerts)

	rec = s.record(sess.ID, models.FeatureJournal, map[string]interface{}{"note": "hi"})
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodGet, "/api/sessions/"+sess.ID, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var stored models.Session
	s.decode(rec, &stored)
	s.Equal(models.SessionStatusCompleted, stored.Status)
}

func (s *HandlersSuite) TestTeenPromptFlow() {
	sess := s.start("p-teen", 14)
	s.Require().Equal(http.StatusOK, s.record(sess.ID, models.FeatureMood, map[string]interface{}{"mood_id": "worried", "intensity": 3}).Code)

	rec := s.do(http.MethodGet, "/api/sessions/"+sess.ID+"/prompts", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var generated []models.Prompt
	s.decode(rec, &generated)
	s.Require().Len(generated, 5)
	s.Equal("worry_thoughts", generated[0].ID)

	rec = s.record(sess.ID, models.FeaturePrompts, map[string]interface{}{
		"answers": map[string]interface{}{
			"worry_thoughts":    "school tests",
			"feeling_intensity": 3,
			"support_need":      "Yes, right now",
		},
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var fr FeatureResponse
	s.decode(rec, &fr)
	s.True(fr.Session.SupportNeeded)
	s.InDelta(60.0, fr.Session.PromptCompletionRate, 0.001)
	s.Len(fr.Session.PromptResponses, 3)

	rec = s.record(sess.ID, models.FeaturePrompts, map[string]interface{}{
		"answers": map[string]interface{}{"feeling_intensity": 11},
	})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/sessions/"+sess.ID+"/finish", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var fin FinishResponse
	s.decode(rec, &fin)
	s.Require().Len(fin.Alerts, 1)
	s.Equal(models.AlertInfo, fin.Alerts[0].Level)
	_, ok := fin.Observation.FindComponent("72139-9")
	s.True(ok)
}

func (s *HandlersSuite) TestPromptsRejectedForChild() {
	sess := s.start("p-child", 9)
	rec := s.record(sess.ID, models.FeaturePrompts, map[string]interface{}{"answers": map[string]interface{}{}})
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *HandlersSuite) TestErrors() {
	rec := s.do(http.MethodGet, "/api/sessions/missing", nil)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.record("missing", models.FeatureMood, map[string]interface{}{"mood_id": "happy"})
	s.Equal(http.StatusNotFound, rec.Code)

	sess := s.start("p-err", 10)
	rec = s.record(sess.ID, "dance", map[string]interface{}{})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.record(sess.ID, models.FeatureMood, map[string]interface{}{"mood_id": "bored"})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/sessions/"+sess.ID+"/finish", nil)
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/sessions/"+sess.ID+"/abandon", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	rec = s.do(http.MethodPost, "/api/sessions/"+sess.ID+"/abandon", nil)
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *HandlersSuite) finishWithMood(patient, mood string, intensity int) {
	sess := s.start(patient, 10)
	rec := s.record(sess.ID, models.FeatureMood, map[string]interface{}{"mood_id": mood, "intensity": intensity})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(http.MethodPost, "/api/sessions/"+sess.ID+"/finish", nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
}

func (s *HandlersSuite) TestPatientEndpoints() {
	for _, intensity := range []int{2, 3, 2, 3} {
		s.finishWithMood("p-hist", "sad", intensity)
		s.now = s.now.Add(time.Hour)
	}

	rec := s.do(http.MethodGet, "/api/patients/p-hist/alerts", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var alerts []models.ClinicalAlert
	s.decode(rec, &alerts)
	s.Require().Len(alerts, 2)
	s.Equal(models.AlertWarning, alerts[0].Level)
	s.Equal(models.AlertUrgent, alerts[1].Level)

	rec = s.do(http.MethodGet, "/api/patients/p-hist/trend", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var trend models.TrendSummary
	s.decode(rec, &trend)
	s.Equal("sad", trend.MostCommonMood)
	s.InDelta(2.5, trend.AverageIntensity, 0.001)

	rec = s.do(http.MethodGet, "/api/patients/p-hist/report?days=7", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var report models.GuardianReport
	s.decode(rec, &report)
	s.Equal(4, report.Summary.TotalSessions)
	s.Contains(report.Recommendations, clinical.RecClinicalReview)

	rec = s.do(http.MethodGet, "/api/patients/p-hist/observations?limit=2", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var obs []models.ObservationRecord
	s.decode(rec, &obs)
	s.Len(obs, 2)

	rec = s.do(http.MethodGet, "/api/patients/p-hist/weekly", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var weekly models.WeeklyStats
	s.decode(rec, &weekly)
	s.Equal(4, weekly.TotalEntries)

	rec = s.do(http.MethodGet, "/api/patients/p-hist/insights", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var insights []models.Insight
	s.decode(rec, &insights)
	s.NotEmpty(insights)

	rec = s.do(http.MethodGet, "/api/patients/p-hist/sessions", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var sessions []models.Session
	s.decode(rec, &sessions)
	s.Len(sessions, 4)
}

func (s *HandlersSuite) TestReportAlertsCoverAlertWindow() {
	today := s.now
	for _, daysAgo := range []int{4, 3, 2} {
		s.now = today.AddDate(0, 0, -daysAgo)
		s.finishWithMood("p-short", "sad", 2)
	}
	s.now = today

	rec := s.do(http.MethodGet, "/api/patients/p-short/alerts", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var alerts []models.ClinicalAlert
	s.decode(rec, &alerts)
	s.Require().Len(alerts, 1)

	rec = s.do(http.MethodGet, "/api/patients/p-short/report?days=1", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var report models.GuardianReport
	s.decode(rec, &report)
	s.Equal(0, report.Summary.TotalSessions, "no entries inside the one-day period")
	s.Empty(report.MoodTrends)
	s.Equal(alerts, report.ClinicalAlerts)
}

func (s *HandlersSuite) TestPromptsRejectUnknownAnswerIDs() {
	sess := s.start("p-typo", 15)
	s.Require().Equal(http.StatusOK, s.record(sess.ID, models.FeatureMood, map[string]interface{}{"mood_id": "calm", "intensity": 6}).Code)

	rec := s.record(sess.ID, models.FeaturePrompts, map[string]interface{}{
		"answers": map[string]interface{}{"feeling_intensty": 4, "nope": "x"},
	})
	s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/sessions/"+sess.ID, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var stored models.Session
	s.decode(rec, &stored)
	s.Equal([]models.FeatureID{models.FeatureMood}, stored.CompletedFeatures)
	s.Empty(stored.PromptResponses)
}

func (s *HandlersSuite) TestCatalogJSONFieldNames() {
	rec := s.do(http.MethodGet, "/api/catalog?age=14", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var raw struct {
		ExpressionModes []map[string]interface{} `json:"expression_modes"`
	}
	s.decode(rec, &raw)
	s.Require().NotEmpty(raw.ExpressionModes)
	for _, m := range raw.ExpressionModes {
		s.Contains(m, "min_age")
		s.NotContains(m, "MinAge")
	}
}

// failingCompleter stores sessions normally but cannot complete them.
type failingCompleter struct {
	*gormdb.SessionStore
}

func (failingCompleter) Complete(context.Context, *models.Session, *models.MoodEntry) error {
	return assert.AnError
}

func (s *HandlersSuite) TestFinishFailureLeavesNoEntry() {
	svc, err := New(Options{
		Config:   config.Default(),
		Sessions: failingCompleter{gormdb.NewSessionStore(s.store)},
		Entries:  gormdb.NewEntryStore(s.store),
		Now:      func() time.Time { return s.now },
	})
	s.Require().NoError(err)
	s.svc = svc

	sess := s.start("p-fail", 10)
	s.Require().Equal(http.StatusOK, s.record(sess.ID, models.FeatureMood, map[string]interface{}{"mood_id": "sad", "intensity": 2}).Code)

	rec := s.do(http.MethodPost, "/api/sessions/"+sess.ID+"/finish", nil)
	s.Equal(http.StatusInternalServerError, rec.Code)

	rec = s.do(http.MethodGet, "/api/sessions/"+sess.ID, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var stored models.Session
	s.decode(rec, &stored)
	s.Equal(models.SessionStatusActive, stored.Status)

	entries, err := gormdb.NewEntryStore(s.store).ListByPatient(context.Background(), "p-fail", 0)
	s.Require().NoError(err)
	s.Empty(entries)
}

// fakeCapture returns fixed media references.
type fakeCapture struct {
	stills   int
	recorded time.Duration
}

func (c *fakeCapture) CaptureStill(context.Context) (checkin.Image, error) {
	c.stills++
	return checkin.Image{Ref: "media/photo-1.jpg", MIMEType: "image/jpeg"}, nil
}

func (c *fakeCapture) RecordAudio(_ context.Context, d time.Duration) (checkin.AudioClip, error) {
	c.recorded = d
	return checkin.AudioClip{Ref: "media/voice-1.ogg", MIMEType: "audio/ogg", Duration: d - 500*time.Millisecond}, nil
}

func (s *HandlersSuite) TestCapture() {
	device := &fakeCapture{}
	svc, err := New(Options{
		Config:   config.Default(),
		Sessions: gormdb.NewSessionStore(s.store),
		Entries:  gormdb.NewEntryStore(s.store),
		Capture:  device,
		Now:      func() time.Time { return s.now },
	})
	s.Require().NoError(err)
	s.svc = svc

	teen := s.start("p-cap", 14)
	rec := s.do(http.MethodPost, "/api/sessions/"+teen.ID+"/capture/photo", nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var fr FeatureResponse
	s.decode(rec, &fr)
	s.Require().NotNil(fr.Session.Expression)
	s.Equal(models.ExpressionPhoto, fr.Session.Expression.Mode)
	s.Equal("media/photo-1.jpg", fr.Session.Expression.Ref)
	s.Contains(fr.Session.CompletedFeatures, models.FeatureExpress)

	rec = s.do(http.MethodPost, "/api/sessions/"+teen.ID+"/capture/voice", map[string]int{"duration_seconds": 20})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.decode(rec, &fr)
	s.Equal(20*time.Second, device.recorded)
	s.Equal(models.ExpressionVoice, fr.Session.Expression.Mode)
	s.Equal(20, fr.Session.Expression.DurationSeconds, "partial seconds round up")

	rec = s.do(http.MethodPost, "/api/sessions/"+teen.ID+"/capture/voice", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodPost, "/api/sessions/"+teen.ID+"/capture/draw", nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	child := s.start("p-cap-young", 9)
	rec = s.do(http.MethodPost, "/api/sessions/"+child.ID+"/capture/photo", nil)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal(1, device.stills, "no capture starts for a session that cannot use it")
}

func (s *HandlersSuite) TestCaptureUnavailable() {
	sess := s.start("p-nodev", 14)
	rec := s.do(http.MethodPost, "/api/sessions/"+sess.ID+"/capture/photo", nil)
	s.Equal(http.StatusServiceUnavailable, rec.Code)

	rec = s.do(http.MethodGet, "/api/sessions/"+sess.ID, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var stored models.Session
	s.decode(rec, &stored)
	s.Nil(stored.Expression)
}

func (s *HandlersSuite) TestEmptyPatient() {
	rec := s.do(http.MethodGet, "/api/patients/nobody/trend", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var trend models.TrendSummary
	s.decode(rec, &trend)
	s.Equal(models.TrendStable, trend.Direction)
	s.Equal(clinical.DefaultMood, trend.MostCommonMood)

	rec = s.do(http.MethodGet, "/api/patients/nobody/alerts", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq("[]", rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(models.ErrSessionNotFound))
	assert.Equal(t, http.StatusForbidden, statusFor(models.ErrInvalidFeatureForAge))
	assert.Equal(t, http.StatusConflict, statusFor(models.ErrMoodRecorded))
	assert.Equal(t, http.StatusBadRequest, statusFor(models.ErrInvalidResponse))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(checkin.ErrCaptureUnavailable))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

func TestNewRequiresRepositories(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}
