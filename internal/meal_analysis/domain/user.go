package domain

import "time"

// User is a read-only snapshot of the account fields the quota depends on.
// DailyRequestCount only has meaning relative to LastRequestDate: a stale date
// means the count is logically zero.
type User struct {
	ID                string     `json:"id"`
	Membership        Membership `json:"membership"`
	DailyRequestCount int        `json:"daily_request_count"`
	LastRequestDate   *time.Time `json:"last_request_date,omitempty"`
}

// DateOf returns the calendar date of t in t's location, normalized to
// midnight UTC so dates compare with Equal.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RequestedOn reports whether the stored counter belongs to day.
func (u User) RequestedOn(day time.Time) bool {
	return u.LastRequestDate != nil && DateOf(*u.LastRequestDate).Equal(DateOf(day))
}

// EffectiveCount is the number of analyses used on day (lazy rollover).
func (u User) EffectiveCount(day time.Time) int {
	if !u.RequestedOn(day) {
		return 0
	}
	return u.DailyRequestCount
}

// WithIncrementedCount returns the snapshot after one more analysis on day.
func (u User) WithIncrementedCount(day time.Time) User {
	d := DateOf(day)
	next := u
	next.DailyRequestCount = u.EffectiveCount(day) + 1
	next.LastRequestDate = &d
	return next
}

// WithReset returns the snapshot after the nightly sweep.
func (u User) WithReset() User {
	next := u
	next.DailyRequestCount = 0
	return next
}
