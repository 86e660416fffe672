package trigger

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Calendar removes instants from a trigger's schedule. A nil Calendar
// excludes nothing.
type Calendar interface {
	// IsTimeIncluded reports whether the trigger may fire at t.
	IsTimeIncluded(t time.Time) bool
}

// CalendarFunc adapts an ordinary function to the Calendar interface.
type CalendarFunc func(time.Time) bool

// IsTimeIncluded calls f.
func (f CalendarFunc) IsTimeIncluded(t time.Time) bool { return f(t) }

// giveUpYears bounds every calendar-advance loop. A candidate more than
// this many years past the loop's reference instant ends the search with
// no result, so a calendar that excludes everything cannot spin forever on
// an unbounded schedule.
const giveUpYears = 100

// advance walks forward from candidate, re-asking FireTimeAfter with each
// excluded candidate, until the calendar includes one or the schedule
// runs out.
func (t *SimpleTrigger) advance(candidate time.Time, ok bool, cal Calendar) (time.Time, bool) {
	if cal == nil {
		return candidate, ok
	}
	limit := candidate.Year() + giveUpYears
	for ok && !cal.IsTimeIncluded(candidate) {
		candidate, ok = t.FireTimeAfter(candidate)
		if ok && candidate.Year() > limit {
			t.logger.Info("calendar excludes every candidate, giving up",
				"trigger", t.key,
				"candidate", candidate,
			)
			return time.Time{}, false
		}
	}
	return candidate, ok
}

// CronCalendar excludes every second matched by a cron expression, e.g.
// "* * 12-13 * * *" keeps a trigger quiet over lunch. Expressions use the
// optional-seconds format: five fields match second zero of each minute,
// six fields start with a seconds field.
type CronCalendar struct {
	expr     string
	schedule cron.Schedule
	base     Calendar
}

var cronCalendarParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NewCronCalendar parses expr. The optional base calendar is consulted
// first; an instant it excludes stays excluded.
func NewCronCalendar(expr string, base Calendar) (*CronCalendar, error) {
	sched, err := cronCalendarParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse calendar expression %q: %w", expr, err)
	}
	return &CronCalendar{expr: expr, schedule: sched, base: base}, nil
}

// Expression returns the cron expression the calendar was built from.
func (c *CronCalendar) Expression() string { return c.expr }

// IsTimeIncluded reports false when the second containing t matches the
// expression.
func (c *CronCalendar) IsTimeIncluded(t time.Time) bool {
	if c.base != nil && !c.base.IsTimeIncluded(t) {
		return false
	}
	sec := t.Truncate(time.Second)
	return !c.schedule.Next(sec.Add(-time.Nanosecond)).Equal(sec)
}
