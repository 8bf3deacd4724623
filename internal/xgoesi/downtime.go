package xgoesi

import "time"

// Daily downtime of the game server, which also affects ESI. Times are in UTC.
const (
	dailyDowntimeStart    = 11 * time.Hour
	dailyDowntimeDuration = 15 * time.Minute
)

// IsDailyDowntime reports whether t is within the planned daily downtime.
func IsDailyDowntime(t time.Time) bool {
	d := t.UTC().Sub(t.UTC().Truncate(24 * time.Hour))
	return d >= dailyDowntimeStart && d < dailyDowntimeStart+dailyDowntimeDuration
}
