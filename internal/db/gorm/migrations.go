package gorm

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: check-in sessions
		{
			ID: "001_checkin_sessions",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&CheckinSession{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("checkin_sessions")
			},
		},

		// Migration 002: mood entries
		{
			ID: "002_mood_entries",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&MoodEntryRow{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("mood_entries")
			},
		},

		// Migration 003: partial index for support requests used by alert queries
		{
			ID: "003_entries_support_index",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_entries_support
					ON mood_entries(patient_id, timestamp_epoch) WHERE support_needed`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec("DROP INDEX IF EXISTS idx_entries_support").Error
			},
		},
	})

	return m.Migrate()
}
