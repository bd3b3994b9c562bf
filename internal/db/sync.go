package db

import (
	"context"
	"fmt"

	"github.com/sstent/garminclient/internal/garmin"
)

// RecordActivities upserts listed summaries. Download state of rows that
// already exist is left alone. Summaries without an id are skipped.
func (d *SQLiteDatabase) RecordActivities(ctx context.Context, summaries []garmin.Summary) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO activities (activity_id, activity_name, activity_type, start_time_local)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(activity_id) DO UPDATE SET
			activity_name = excluded.activity_name,
			activity_type = excluded.activity_type,
			start_time_local = excluded.start_time_local`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, s := range summaries {
		if s.ActivityID == nil {
			continue
		}
		if _, err := stmt.ExecContext(ctx, *s.ActivityID, deref(s.ActivityName), deref(s.ActivityType), deref(s.StartTimeLocal)); err != nil {
			return fmt.Errorf("failed to upsert activity %d: %w", *s.ActivityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit activities: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
