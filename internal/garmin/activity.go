package garmin

import "strings"

// ActivityType is the nested type descriptor of an upstream activity.
type ActivityType struct {
	TypeKey *string `json:"typeKey"`
}

// RawActivity is an activity record as the service reports it. Every field is
// optional so that an absent value can be told apart from a zero one.
type RawActivity struct {
	ActivityID     *int64        `json:"activityId"`
	ActivityName   *string       `json:"activityName"`
	ActivityType   *ActivityType `json:"activityType"`
	StartTimeLocal *string       `json:"startTimeLocal"`
	Distance       *float64      `json:"distance"`
	Duration       *float64      `json:"duration"`
	AverageSpeed   *float64      `json:"averageSpeed"`
	Calories       *float64      `json:"calories"`
}

// TypeKey returns the activity type key, or nil when the record has none.
func (a RawActivity) TypeKey() *string {
	if a.ActivityType == nil {
		return nil
	}
	return a.ActivityType.TypeKey
}

// Summary is the reshaped cycling activity written to stdout.
type Summary struct {
	ActivityID     *int64  `json:"activityId"`
	ActivityName   *string `json:"activityName"`
	ActivityType   *string `json:"activityType"`
	StartTimeLocal *string `json:"startTimeLocal"`
	Distance       float64 `json:"distance"`
	Duration       float64 `json:"duration"`
	AverageSpeed   float64 `json:"averageSpeed"`
	Calories       float64 `json:"calories"`
}

var bikeTypeMarkers = []string{"cycling", "bike", "biking"}

// IsBikeActivity reports whether the type key names a cycling activity.
func IsBikeActivity(typeKey string) bool {
	key := strings.ToLower(typeKey)
	for _, marker := range bikeTypeMarkers {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}

// NormalizeStartTime turns "YYYY-MM-DD HH:MM:SS" into "YYYY-MM-DDTHH:MM:SSZ".
// Values without a space, and nil, come back unchanged.
func NormalizeStartTime(raw *string) *string {
	if raw == nil || !strings.Contains(*raw, " ") {
		return raw
	}
	s := strings.ReplaceAll(*raw, " ", "T") + "Z"
	return &s
}

// Summarize reshapes a raw record, defaulting missing numbers to zero.
func Summarize(a RawActivity) Summary {
	return Summary{
		ActivityID:     a.ActivityID,
		ActivityName:   a.ActivityName,
		ActivityType:   a.TypeKey(),
		StartTimeLocal: NormalizeStartTime(a.StartTimeLocal),
		Distance:       valueOrZero(a.Distance),
		Duration:       valueOrZero(a.Duration),
		AverageSpeed:   valueOrZero(a.AverageSpeed),
		Calories:       valueOrZero(a.Calories),
	}
}

// BikeSummaries keeps the cycling activities and reshapes them, preserving
// upstream order. The result is never nil.
func BikeSummaries(activities []RawActivity) []Summary {
	summaries := make([]Summary, 0, len(activities))
	for _, a := range activities {
		key := a.TypeKey()
		if key == nil || !IsBikeActivity(*key) {
			continue
		}
		summaries = append(summaries, Summarize(a))
	}
	return summaries
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
