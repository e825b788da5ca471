package gorm

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thebtf/emocheck/pkg/models"
)

// EntryStore persists mood entries projected from finished sessions.
type EntryStore struct {
	db *gorm.DB
}

// NewEntryStore creates a new entry store.
func NewEntryStore(store *Store) *EntryStore {
	return &EntryStore{db: store.DB}
}

// Save stores an entry. A second entry for the same session replaces the first.
func (s *EntryStore) Save(ctx context.Context, entry *models.MoodEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	row := &MoodEntryRow{
		ID:             entry.ID,
		SessionID:      entry.SessionID,
		PatientID:      entry.PatientID,
		MoodPrimary:    entry.Mood.Primary,
		Intensity:      entry.Mood.Intensity,
		SupportNeeded:  entry.SupportNeeded,
		Colors:         models.JSONStringArray(entry.Colors),
		Payload:        payload,
		TimestampEpoch: entry.Timestamp.UnixMilli(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"mood_primary", "intensity", "support_needed", "colors", "payload", "timestamp_epoch",
		}),
	}).Create(row).Error
}

// ListByPatient returns a patient's entries in chronological order.
// With limit > 0 only the most recent limit entries are returned.
func (s *EntryStore) ListByPatient(ctx context.Context, patientID string, limit int) ([]models.MoodEntry, error) {
	return s.list(s.db.WithContext(ctx).Where("patient_id = ?", patientID), limit)
}

// ListSince returns a patient's entries with a timestamp strictly after since.
func (s *EntryStore) ListSince(ctx context.Context, patientID string, since time.Time) ([]models.MoodEntry, error) {
	query := s.db.WithContext(ctx).
		Where("patient_id = ? AND timestamp_epoch > ?", patientID, since.UnixMilli())
	return s.list(query, 0)
}

func (s *EntryStore) list(query *gorm.DB, limit int) ([]models.MoodEntry, error) {
	var rows []MoodEntryRow
	query = query.Order("timestamp_epoch DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	// Rows arrive newest first; callers get them oldest first.
	entries := make([]models.MoodEntry, len(rows))
	for i := range rows {
		var e models.MoodEntry
		if err := json.Unmarshal(rows[i].Payload, &e); err != nil {
			return nil, fmt.Errorf("decode entry %s: %w", rows[i].ID, err)
		}
		entries[len(rows)-1-i] = e
	}
	return entries, nil
}
