package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const timeLayout = "2006-01-02 15:04:05"

// ActivityRecord is one row of the ledger.
type ActivityRecord struct {
	ActivityID     int64
	ActivityName   string
	ActivityType   string
	StartTimeLocal string
	Downloaded     bool
	Filename       string
	Format         string
	DownloadedAt   time.Time
}

// SQLiteDatabase is the ledger of listed and downloaded activities.
type SQLiteDatabase struct {
	db *sql.DB
}

// NewDatabase opens (creating if needed) the ledger at path.
func NewDatabase(path string) (*SQLiteDatabase, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteDatabase{db: db}, nil
}

// Close closes the database connection
func (d *SQLiteDatabase) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS activities (
		activity_id INTEGER PRIMARY KEY,
		activity_name TEXT NOT NULL DEFAULT '',
		activity_type TEXT NOT NULL DEFAULT '',
		start_time_local TEXT NOT NULL DEFAULT '',
		downloaded BOOLEAN NOT NULL DEFAULT 0,
		filename TEXT NOT NULL DEFAULT '',
		format TEXT NOT NULL DEFAULT '',
		downloaded_at TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_downloaded ON activities(downloaded);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// GetAll returns every activity in the ledger, ordered by id. The CLI only
// writes to the ledger; GetAll and GetDownloaded are for inspecting it.
func (d *SQLiteDatabase) GetAll(ctx context.Context) ([]ActivityRecord, error) {
	rows, err := d.db.QueryContext(ctx, selectActivities+" ORDER BY activity_id")
	if err != nil {
		return nil, fmt.Errorf("failed to get all activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// GetDownloaded returns the activities that have been downloaded.
func (d *SQLiteDatabase) GetDownloaded(ctx context.Context) ([]ActivityRecord, error) {
	rows, err := d.db.QueryContext(ctx, selectActivities+" WHERE downloaded = 1 ORDER BY activity_id")
	if err != nil {
		return nil, fmt.Errorf("failed to get downloaded activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// MarkDownloaded records a finished download. An empty filename means the
// payload went to stdout.
func (d *SQLiteDatabase) MarkDownloaded(ctx context.Context, activityID int64, filename, format string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO activities (activity_id, downloaded, filename, format, downloaded_at)
		VALUES (?, 1, ?, ?, ?)
		ON CONFLICT(activity_id) DO UPDATE SET
			downloaded = 1,
			filename = excluded.filename,
			format = excluded.format,
			downloaded_at = excluded.downloaded_at`,
		activityID, filename, format, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to mark activity %d as downloaded: %w", activityID, err)
	}

	return nil
}

const selectActivities = `SELECT activity_id, activity_name, activity_type, start_time_local,
	downloaded, filename, format, downloaded_at FROM activities`

func scanActivities(rows *sql.Rows) ([]ActivityRecord, error) {
	var activities []ActivityRecord

	for rows.Next() {
		var activity ActivityRecord
		var downloaded int
		var downloadedAt string

		if err := rows.Scan(&activity.ActivityID, &activity.ActivityName, &activity.ActivityType,
			&activity.StartTimeLocal, &downloaded, &activity.Filename, &activity.Format, &downloadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}

		activity.Downloaded = downloaded == 1
		if downloadedAt != "" {
			activity.DownloadedAt, _ = time.Parse(timeLayout, downloadedAt)
		}
		activities = append(activities, activity)
	}

	return activities, rows.Err()
}
