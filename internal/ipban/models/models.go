package models

import "time"

// BanRecord is the durable ban row for one IP. Rows are never deleted:
// a new ban for the same IP updates the latest row in place, so history
// before the latest row is retained.
type BanRecord struct {
	ID          int64
	IP          string
	Reason      string
	BannedUntil *time.Time
	Permanent   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ActiveAt reports whether the ban blocks logins at the given instant.
func (r *BanRecord) ActiveAt(now time.Time) bool {
	if r == nil {
		return false
	}
	if r.Permanent {
		return true
	}
	return r.BannedUntil != nil && r.BannedUntil.After(now)
}

// BanRule maps an accumulated ban count to a ban duration. Rules are kept
// in ascending threshold order; the last rule whose threshold is <= the
// count wins.
type BanRule struct {
	Threshold int64
	Duration  time.Duration
}

// DefaultRules is the escalation ladder: first offence 15 minutes,
// repeat offence within the ban-counter horizon one hour.
func DefaultRules() []BanRule {
	return []BanRule{
		{Threshold: 1, Duration: 15 * time.Minute},
		{Threshold: 2, Duration: time.Hour},
	}
}
