package garmin

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
	"time"

	garminconnect "github.com/abrander/garmin-connect"
	"golang.org/x/time/rate"
)

func TestFromConnect(t *testing.T) {
	ga := garminconnect.Activity{
		ID:           987,
		ActivityName: "Gravel Loop",
		ActivityType: garminconnect.ActivityType{TypeKey: "gravel_cycling"},
		StartLocal:   garminconnect.Time{Time: time.Date(2024, 3, 1, 9, 5, 0, 0, time.UTC)},
		Distance:     61234.5,
		Duration:     9000,
		AverageSpeed: 6.8,
		Calories:     1400,
	}

	raw := fromConnect(ga)
	if *raw.ActivityID != 987 || *raw.ActivityName != "Gravel Loop" {
		t.Errorf("identity not carried over: %+v", raw)
	}
	if *raw.TypeKey() != "gravel_cycling" {
		t.Errorf("TypeKey = %q", *raw.TypeKey())
	}
	if raw.StartTimeLocal == nil || *raw.StartTimeLocal != "2024-03-01 09:05:00" {
		t.Errorf("StartTimeLocal = %v, want 2024-03-01 09:05:00", raw.StartTimeLocal)
	}

	s := Summarize(raw)
	if *s.StartTimeLocal != "2024-03-01T09:05:00Z" {
		t.Errorf("summary StartTimeLocal = %q", *s.StartTimeLocal)
	}
}

func TestFromConnect_ZeroStartTime(t *testing.T) {
	raw := fromConnect(garminconnect.Activity{ID: 1})
	if raw.StartTimeLocal != nil {
		t.Errorf("zero start time should map to nil, got %q", *raw.StartTimeLocal)
	}
}

func TestNewClient_Options(t *testing.T) {
	c := newClient(nil, Options{})
	if c.pageSize != defaultPageSize {
		t.Errorf("pageSize = %d, want %d", c.pageSize, defaultPageSize)
	}
	if c.limiter.Limit() != rate.Inf {
		t.Errorf("limit = %v, want Inf when no rate limit is set", c.limiter.Limit())
	}

	c = newClient(nil, Options{PageSize: 20, RateLimit: 2 * time.Second})
	if c.pageSize != 20 {
		t.Errorf("pageSize = %d, want 20", c.pageSize)
	}
	if c.limiter.Limit() != rate.Every(2*time.Second) {
		t.Errorf("limit = %v, want one per 2s", c.limiter.Limit())
	}
}

type fakeActivities struct {
	pages   [][]garminconnect.Activity
	err     error
	offsets []int
	export  string
}

func (f *fakeActivities) Activities(_ string, start int, limit int) ([]garminconnect.Activity, error) {
	f.offsets = append(f.offsets, start)
	if f.err != nil {
		return nil, f.err
	}
	i := start / limit
	if i >= len(f.pages) {
		return nil, nil
	}
	return f.pages[i], nil
}

func (f *fakeActivities) ExportActivity(id int, w io.Writer, format garminconnect.ActivityFormat) error {
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, f.export)
	return err
}

func activityAt(id int, ts string) garminconnect.Activity {
	a := garminconnect.Activity{ID: id}
	if ts != "" {
		parsed, err := time.Parse(startTimeLayout, ts)
		if err != nil {
			panic(err)
		}
		a.StartLocal = garminconnect.Time{Time: parsed}
	}
	return a
}

func TestActivitiesByDate(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	tests := []struct {
		name        string
		pageSize    int
		pages       [][]garminconnect.Activity
		wantIDs     []int64
		wantOffsets []int
	}{
		{
			name:     "window is half open",
			pageSize: 10,
			pages: [][]garminconnect.Activity{{
				activityAt(1, "2024-03-02 00:00:00"),
				activityAt(2, "2024-03-01 00:00:00"),
			}},
			wantIDs:     []int64{2},
			wantOffsets: []int{0},
		},
		{
			name:     "walks pages until an older activity",
			pageSize: 2,
			pages: [][]garminconnect.Activity{
				{activityAt(1, "2024-03-02 00:00:00"), activityAt(2, "2024-03-01 23:59:00")},
				{activityAt(3, "2024-03-01 08:00:00"), activityAt(4, "2024-02-29 22:00:00")},
				{activityAt(5, "2024-02-28 10:00:00"), activityAt(6, "2024-02-27 10:00:00")},
			},
			wantIDs:     []int64{2, 3},
			wantOffsets: []int{0, 2},
		},
		{
			name:     "stops after the page holding the first older activity",
			pageSize: 2,
			pages: [][]garminconnect.Activity{
				{activityAt(1, "2024-03-01 10:00:00"), activityAt(2, "2024-02-28 10:00:00")},
				{activityAt(3, "2024-03-01 09:00:00")},
			},
			wantIDs:     []int64{1},
			wantOffsets: []int{0},
		},
		{
			name:     "missing start time does not end the walk",
			pageSize: 2,
			pages: [][]garminconnect.Activity{
				{activityAt(1, "2024-03-01 12:00:00"), activityAt(2, "")},
				{activityAt(3, "2024-03-01 06:00:00")},
			},
			wantIDs:     []int64{1, 3},
			wantOffsets: []int{0, 2},
		},
		{
			name:        "empty listing",
			pageSize:    2,
			wantOffsets: []int{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeActivities{pages: tt.pages}
			c := newClient(svc, Options{PageSize: tt.pageSize})

			got, err := c.ActivitiesByDate(context.Background(), start, end)
			if err != nil {
				t.Fatalf("ActivitiesByDate: %v", err)
			}

			var ids []int64
			for _, a := range got {
				ids = append(ids, *a.ActivityID)
			}
			if !slices.Equal(ids, tt.wantIDs) {
				t.Errorf("ids = %v, want %v", ids, tt.wantIDs)
			}
			if !slices.Equal(svc.offsets, tt.wantOffsets) {
				t.Errorf("offsets requested = %v, want %v", svc.offsets, tt.wantOffsets)
			}
		})
	}
}

func TestActivitiesByDate_ListError(t *testing.T) {
	svc := &fakeActivities{err: errors.New("503 Service Unavailable")}
	c := newClient(svc, Options{PageSize: 5})

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := c.ActivitiesByDate(context.Background(), start, start.AddDate(0, 0, 1))
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, svc.err) {
		t.Errorf("error %v does not wrap the service error", err)
	}
	if !strings.Contains(err.Error(), "offset 0") {
		t.Errorf("error %q does not name the offset", err)
	}
}

func TestDownloadActivity(t *testing.T) {
	svc := &fakeActivities{export: "<gpx></gpx>"}
	c := newClient(svc, Options{})

	data, err := c.DownloadActivity(context.Background(), 42, FormatGPX)
	if err != nil {
		t.Fatalf("DownloadActivity: %v", err)
	}
	if string(data) != "<gpx></gpx>" {
		t.Errorf("data = %q", data)
	}

	svc.err = errors.New("404 Not Found")
	if _, err := c.DownloadActivity(context.Background(), 42, FormatGPX); !errors.Is(err, svc.err) {
		t.Errorf("err = %v, want wrapped 404", err)
	}
}
