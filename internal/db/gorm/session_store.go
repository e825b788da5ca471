package gorm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/gorm"

	"github.com/thebtf/emocheck/pkg/models"
)

// SessionStore persists check-in sessions.
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore creates a new session store.
func NewSessionStore(store *Store) *SessionStore {
	return &SessionStore{db: store.DB}
}

// Create inserts a new session.
func (s *SessionStore) Create(ctx context.Context, sess *models.Session) error {
	row, err := toSessionRow(sess)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(row).Error
}

// Update overwrites a stored session. Unknown ids return models.ErrSessionNotFound.
func (s *SessionStore) Update(ctx context.Context, sess *models.Session) error {
	row, err := toSessionRow(sess)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).
		Model(&CheckinSession{}).
		Where("id = ?", row.ID).
		Select("status", "mood", "completed_features", "payload", "ended_at_epoch", "updated_at_epoch").
		Updates(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update %s: %w", sess.ID, models.ErrSessionNotFound)
	}
	return nil
}

// Complete stores a finished session together with its mood entry in one
// transaction. Neither row is written if either write fails.
func (s *SessionStore) Complete(ctx context.Context, sess *models.Session, entry *models.MoodEntry) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := (&SessionStore{db: tx}).Update(ctx, sess); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		if err := (&EntryStore{db: tx}).Save(ctx, entry); err != nil {
			return fmt.Errorf("save entry: %w", err)
		}
		return nil
	})
}

// Get loads a session by id.
func (s *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	var row CheckinSession
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get %s: %w", id, models.ErrSessionNotFound)
	}
	if err != nil {
		return nil, err
	}
	return toModelSession(&row)
}

// ListByPatient returns a patient's sessions, newest first.
func (s *SessionStore) ListByPatient(ctx context.Context, patientID string, limit int) ([]*models.Session, error) {
	var rows []CheckinSession
	query := s.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("started_at_epoch DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	sessions := make([]*models.Session, 0, len(rows))
	for i := range rows {
		sess, err := toModelSession(&rows[i])
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

func toSessionRow(sess *models.Session) (*CheckinSession, error) {
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	features := make(models.JSONStringArray, 0, len(sess.CompletedFeatures))
	for _, f := range sess.CompletedFeatures {
		features = append(features, string(f))
	}
	row := &CheckinSession{
		ID:                sess.ID,
		PatientID:         sess.PatientID,
		Status:            sess.Status,
		AgeAtSession:      sess.AgeAtSession,
		CompletedFeatures: features,
		Payload:           payload,
		StartedAtEpoch:    sess.StartTime.UnixMilli(),
		UpdatedAtEpoch:    time.Now().UnixMilli(),
	}
	if sess.Mood != nil {
		row.Mood = sqlNullString(sess.Mood.MoodID)
	}
	if sess.EndTime != nil {
		row.EndedAtEpoch = sql.NullInt64{Int64: sess.EndTime.UnixMilli(), Valid: true}
	}
	return row, nil
}

func toModelSession(row *CheckinSession) (*models.Session, error) {
	var sess models.Session
	if err := json.Unmarshal(row.Payload, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", row.ID, err)
	}
	return &sess, nil
}
