package gorm

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/thebtf/emocheck/pkg/models"
)

// CheckinSession is a stored check-in session. Indexed columns mirror the
// fields used for lookups; Payload holds the full session document.
type CheckinSession struct {
	ID                string                 `gorm:"primaryKey;type:varchar(64)"`
	PatientID         string                 `gorm:"type:varchar(128);index:idx_sessions_patient_started,priority:1;not null"`
	Status            models.SessionStatus   `gorm:"type:varchar(16);check:status IN ('active', 'completed', 'abandoned');default:'active';index;not null"`
	AgeAtSession      int                    `gorm:"not null"`
	Mood              sql.NullString         `gorm:"type:varchar(64)"`
	CompletedFeatures models.JSONStringArray `gorm:"type:text"`
	Payload           datatypes.JSON         `gorm:"not null"`
	StartedAtEpoch    int64                  `gorm:"index:idx_sessions_patient_started,priority:2,sort:desc;not null"`
	EndedAtEpoch      sql.NullInt64
	UpdatedAtEpoch    int64 `gorm:"not null"`
}

func (CheckinSession) TableName() string { return "checkin_sessions" }

// BeforeCreate hook to ensure timestamps are set.
func (s *CheckinSession) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().UnixMilli()
	if s.UpdatedAtEpoch == 0 {
		s.UpdatedAtEpoch = now
	}
	if s.StartedAtEpoch == 0 {
		s.StartedAtEpoch = now
	}
	return nil
}

// MoodEntryRow is a stored mood entry, one per finished session.
type MoodEntryRow struct {
	ID             string                 `gorm:"primaryKey;type:varchar(64)"`
	SessionID      string                 `gorm:"type:varchar(64);uniqueIndex;not null"`
	PatientID      string                 `gorm:"type:varchar(128);index:idx_entries_patient_time,priority:1;not null"`
	MoodPrimary    string                 `gorm:"type:varchar(64);index;not null"`
	Intensity      int                    `gorm:"check:intensity BETWEEN 1 AND 10;not null"`
	SupportNeeded  bool                   `gorm:"default:false;not null"`
	Colors         models.JSONStringArray `gorm:"type:text"`
	Payload        datatypes.JSON         `gorm:"not null"`
	TimestampEpoch int64                  `gorm:"index:idx_entries_patient_time,priority:2;not null"`
	CreatedAtEpoch int64                  `gorm:"not null"`
}

func (MoodEntryRow) TableName() string { return "mood_entries" }

// BeforeCreate hook to ensure timestamps are set.
func (e *MoodEntryRow) BeforeCreate(tx *gorm.DB) error {
	if e.CreatedAtEpoch == 0 {
		e.CreatedAtEpoch = time.Now().UnixMilli()
	}
	return nil
}
