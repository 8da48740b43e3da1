package scheduler

import "time"

// DateLayout is the storage format of calendar dates.
const DateLayout = "2006-01-02"

// Streak is the per-user daily activity streak. LastActiveDate is a calendar date in
// Config.Location, formatted with DateLayout.
type Streak struct {
	CurrentStreak  int
	LongestStreak  int
	LastActiveDate string
}

// StreakTransition describes what ApplyStreak did, for logging and metrics.
type StreakTransition string

const (
	StreakStarted   StreakTransition = "started"
	StreakUnchanged StreakTransition = "unchanged"
	StreakExtended  StreakTransition = "extended"
	StreakReset     StreakTransition = "reset"
)

// Today returns the calendar date of t in the configured location.
func (c Config) Today(t time.Time) string {
	return t.In(c.location()).Format(DateLayout)
}

// StartOfDay returns midnight of t's calendar day in the configured location.
func (c Config) StartOfDay(t time.Time) time.Time {
	l := t.In(c.location())
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, c.location())
}

// ApplyStreak records activity at now. A nil streak starts a new one. Repeated calls
// on the same calendar day are no-ops. A gap of two or more days, an unparsable date,
// or a last-active date in the future resets the current streak to 1.
func (c Config) ApplyStreak(s *Streak, now time.Time) (Streak, StreakTransition) {
	today := c.Today(now)
	if s == nil {
		return Streak{CurrentStreak: 1, LongestStreak: 1, LastActiveDate: today}, StreakStarted
	}

	next := *s
	if next.LastActiveDate == today {
		return next, StreakUnchanged
	}

	transition := StreakReset
	yesterday := c.StartOfDay(now).AddDate(0, 0, -1).Format(DateLayout)
	if next.LastActiveDate == yesterday {
		next.CurrentStreak++
		transition = StreakExtended
	} else {
		next.CurrentStreak = 1
	}

	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	next.LastActiveDate = today
	return next, transition
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}
