package domain

import "time"

// WeeklyReportSnapshot stores per-workspace weekly metrics. One snapshot per
// workspace and week start date.
type WeeklyReportSnapshot struct {
	ID            string
	WorkspaceID   string
	WeekStartDate time.Time
	Payload       map[string]any
	CreatedAt     time.Time
}

// WeekStart truncates a timestamp to the Monday 00:00 UTC that opens its week.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	day := t.Truncate(24 * time.Hour)
	return day.AddDate(0, 0, -(weekday - 1))
}
