// Package runner authenticates once, runs one command against the session
// and writes its result to stdout.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sstent/garminclient/internal/config"
	"github.com/sstent/garminclient/internal/garmin"
)

// LoginFunc authenticates and returns a session. garmin.Login satisfies it.
type LoginFunc func(ctx context.Context, creds garmin.Credentials, opts garmin.Options) (garmin.Session, error)

// Ledger records what was listed and downloaded. It is optional.
type Ledger interface {
	RecordActivities(ctx context.Context, summaries []garmin.Summary) error
	MarkDownloaded(ctx context.Context, activityID int64, filename, format string) error
}

// Runner executes a single command.
type Runner struct {
	Login  LoginFunc
	Stdout io.Writer
	Ledger Ledger
	Logger *slog.Logger
}

// Run validates cfg, logs in and dispatches on cfg.Command. Any returned
// error is an *Error.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) error {
	logger := r.logger()

	if err := cfg.Validate(); err != nil {
		return newError(KindValidation, err)
	}

	session, err := r.Login(ctx, garmin.Credentials{Username: cfg.Username, Password: cfg.Password}, garmin.Options{
		PageSize:  cfg.PageSize,
		RateLimit: cfg.RateLimit,
		Logger:    logger,
	})
	if err != nil {
		return newError(KindAuthentication, err)
	}
	logger.Info("logged in to Garmin Connect")

	switch cfg.Command {
	case config.CommandGetActivities:
		return r.fetchBikeActivities(ctx, session, cfg)
	case config.CommandDownloadActivity:
		return r.downloadActivity(ctx, session, cfg)
	default:
		return newError(KindValidation, fmt.Errorf("invalid --command %q", cfg.Command))
	}
}

func (r *Runner) fetchBikeActivities(ctx context.Context, session garmin.Session, cfg *config.Config) error {
	logger := r.logger()

	day, err := cfg.Day()
	if err != nil {
		return newError(KindFetch, err)
	}

	activities, err := session.ActivitiesByDate(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return newError(KindFetch, err)
	}

	summaries := garmin.BikeSummaries(activities)
	logger.Info("filtered bike activities", "date", cfg.Date, "fetched", len(activities), "bike", len(summaries))

	// Encode fully before writing so a failure leaves stdout empty.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summaries); err != nil {
		return newError(KindFetch, fmt.Errorf("failed to encode activities: %w", err))
	}

	if r.Ledger != nil {
		if err := r.Ledger.RecordActivities(ctx, summaries); err != nil {
			logger.Warn("failed to record activities in ledger", "error", err)
		}
	}

	if _, err := r.Stdout.Write(buf.Bytes()); err != nil {
		return newError(KindFetch, fmt.Errorf("failed to write output: %w", err))
	}
	return nil
}

func (r *Runner) downloadActivity(ctx context.Context, session garmin.Session, cfg *config.Config) error {
	logger := r.logger().With("activity_id", cfg.ActivityID)
	format := garmin.ParseFormat(cfg.Format)

	data, err := session.DownloadActivity(ctx, cfg.ActivityID, format)
	if err != nil {
		return newError(KindDownload, err)
	}

	if cfg.Verify {
		result, err := garmin.Verify(format, data)
		if err != nil {
			logger.Warn("downloaded payload failed verification", "format", format.String(), "error", err)
		} else {
			logger.Info("downloaded payload verified", "format", format.String(), "records", result.Records, "root", result.Root)
		}
	}

	if cfg.Output != "" {
		if err := os.WriteFile(cfg.Output, data, 0o644); err != nil {
			return newError(KindDownload, fmt.Errorf("failed to write %s: %w", cfg.Output, err))
		}
		r.markDownloaded(ctx, logger, cfg.ActivityID, cfg.Output, format)
		fmt.Fprintf(r.Stdout, "Activity downloaded to %s\n", cfg.Output)
		return nil
	}

	if _, err := r.Stdout.Write(data); err != nil {
		return newError(KindDownload, fmt.Errorf("failed to write output: %w", err))
	}
	r.markDownloaded(ctx, logger, cfg.ActivityID, "", format)
	return nil
}

func (r *Runner) markDownloaded(ctx context.Context, logger *slog.Logger, activityID int64, filename string, format garmin.Format) {
	if r.Ledger == nil {
		return
	}
	if err := r.Ledger.MarkDownloaded(ctx, activityID, filename, format.String()); err != nil {
		logger.Warn("failed to record download in ledger", "error", err)
	}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
