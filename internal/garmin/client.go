package garmin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	garminconnect "github.com/abrander/garmin-connect"
	"golang.org/x/time/rate"
)

const (
	defaultPageSize  = 100
	startTimeLayout  = "2006-01-02 15:04:05"
	currentUserQuery = "" // empty display name = the authenticated user
)

// Session is an authenticated handle to Garmin Connect, valid for one
// invocation.
type Session interface {
	// ActivitiesByDate returns the activities starting in [start, end),
	// newest first, as the service orders them.
	ActivitiesByDate(ctx context.Context, start, end time.Time) ([]RawActivity, error)
	DownloadActivity(ctx context.Context, activityID int64, format Format) ([]byte, error)
}

// Credentials are the account details used to log in.
type Credentials struct {
	Username string
	Password string
}

// Options tune how the session talks to the service.
type Options struct {
	// PageSize is the number of activities requested per listing page.
	PageSize int
	// RateLimit is the minimum interval between listing pages.
	RateLimit time.Duration
	Logger    *slog.Logger
}

// activityService is the part of *garminconnect.Client a session uses.
type activityService interface {
	Activities(displayName string, start int, limit int) ([]garminconnect.Activity, error)
	ExportActivity(id int, w io.Writer, format garminconnect.ActivityFormat) error
}

// Client implements Session on top of github.com/abrander/garmin-connect.
type Client struct {
	client   activityService
	pageSize int
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// Login authenticates and returns a ready session.
func Login(ctx context.Context, creds Credentials, opts Options) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := garminconnect.NewClient(garminconnect.Credentials(creds.Username, creds.Password))
	if err := client.Authenticate(); err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	return newClient(client, opts), nil
}

func newClient(client activityService, opts Options) *Client {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Every(opts.RateLimit)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		client:   client,
		pageSize: pageSize,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
}

// ActivitiesByDate pages through the activity list until it reaches
// activities that started before start.
func (c *Client) ActivitiesByDate(ctx context.Context, start, end time.Time) ([]RawActivity, error) {
	var activities []RawActivity

	for offset := 0; ; offset += c.pageSize {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := c.client.Activities(currentUserQuery, offset, c.pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list activities at offset %d: %w", offset, err)
		}
		c.logger.Debug("fetched activity page", "offset", offset, "count", len(page))

		reachedOlder := false
		for _, ga := range page {
			started := ga.StartLocal.Time
			// Unknown start: neither in the window nor older than it.
			if started.IsZero() {
				continue
			}
			if !started.Before(end) {
				continue
			}
			if started.Before(start) {
				reachedOlder = true
				continue
			}
			activities = append(activities, fromConnect(ga))
		}

		if reachedOlder || len(page) < c.pageSize {
			return activities, nil
		}
	}
}

// DownloadActivity exports a single activity in the requested format.
func (c *Client) DownloadActivity(ctx context.Context, activityID int64, format Format) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := c.client.ExportActivity(int(activityID), &buf, format.exportFormat()); err != nil {
		return nil, fmt.Errorf("failed to export activity %d as %s: %w", activityID, format, err)
	}
	c.logger.Debug("exported activity", "activity_id", activityID, "format", format.String(), "bytes", buf.Len())

	return buf.Bytes(), nil
}

func fromConnect(ga garminconnect.Activity) RawActivity {
	id := int64(ga.ID)
	name := ga.ActivityName
	typeKey := ga.ActivityType.TypeKey
	distance := ga.Distance
	duration := ga.Duration
	speed := ga.AverageSpeed
	calories := ga.Calories

	raw := RawActivity{
		ActivityID:   &id,
		ActivityName: &name,
		ActivityType: &ActivityType{TypeKey: &typeKey},
		Distance:     &distance,
		Duration:     &duration,
		AverageSpeed: &speed,
		Calories:     &calories,
	}
	if !ga.StartLocal.Time.IsZero() {
		started := ga.StartLocal.Time.Format(startTimeLayout)
		raw.StartTimeLocal = &started
	}
	return raw
}
