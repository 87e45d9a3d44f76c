// Package calendar projects wall-clock dates onto a dense working-minute
// index so the optimizer reasons in integers, while calendar-sensitive
// constraints (weekends, holidays, on-dock dates) stay exact.
package calendar

import (
	"time"

	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
)

// MinutesPerWorkingDay is the number of working minutes in one working
// day (an 8-hour shift day), the unit the CP model and lateness
// calculations operate in.
const MinutesPerWorkingDay = 8 * 60

// DefaultHorizonYears bounds the default projection horizon.
const DefaultHorizonYears = 5

// DefaultHorizonCapDays is the hard cap on horizon search; exceeding it
// without finding a working day returns HorizonExceeded.
const DefaultHorizonCapDays = DefaultHorizonYears * 365

// DayOpenHour is the wall-clock hour at which a working day opens, used
// to anchor the coarse working-minute projection (shift placement
// within the day is a separate, shift-table-driven concern).
const DayOpenHour = 6

// Calendar projects one product line's wall-clock dates onto the
// working-minute index, given its holiday set.
type Calendar struct {
	epoch       time.Time
	holidays    map[string]bool
	horizonCap  int
	dateToIndex map[string]int
	indexToDate []time.Time
}

// New builds a Calendar anchored at epoch for a product line's holiday
// set (date strings in "2006-01-02" form). The projection is computed
// lazily up to horizonCapDays; pass 0 to use DefaultHorizonCapDays.
func New(epoch time.Time, holidays map[string]bool, horizonCapDays int) *Calendar {
	if horizonCapDays <= 0 {
		horizonCapDays = DefaultHorizonCapDays
	}
	if holidays == nil {
		holidays = map[string]bool{}
	}
	c := &Calendar{
		epoch:       time.Date(epoch.Year(), epoch.Month(), epoch.Day(), 0, 0, 0, 0, epoch.Location()),
		holidays:    holidays,
		horizonCap:  horizonCapDays,
		dateToIndex: map[string]int{},
	}
	c.extend(horizonCapDays)
	return c
}

// NewForProduct builds a Calendar anchored at the product's own epoch
// convention (callers pass the scheduling epoch, not the delivery date).
func NewForProduct(epoch time.Time, product schedtypes.ProductLine, horizonCapDays int) *Calendar {
	return New(epoch, product.Holidays, horizonCapDays)
}

func dateKey(d time.Time) string {
	return d.Format("2006-01-02")
}

// IsWorkingDay reports whether date is Mon-Fri and not a holiday.
func IsWorkingDay(date time.Time, holidays map[string]bool) bool {
	wd := date.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !holidays[dateKey(date)]
}

// IsWorkingDay reports whether date is a working day under this calendar.
func (c *Calendar) IsWorkingDay(date time.Time) bool {
	return IsWorkingDay(date, c.holidays)
}

// extend walks forward from the epoch, recording the cumulative
// working-minute index that each working day opens at, up through
// capDays calendar days.
func (c *Calendar) extend(capDays int) {
	cumulative := 0
	for day := 0; day < capDays; day++ {
		date := c.epoch.AddDate(0, 0, day)
		if !c.IsWorkingDay(date) {
			continue
		}
		key := dateKey(date)
		if _, ok := c.dateToIndex[key]; ok {
			continue
		}
		c.dateToIndex[key] = cumulative
		c.indexToDate = append(c.indexToDate, c.openingTime(date))
		cumulative += MinutesPerWorkingDay
	}
}

func (c *Calendar) openingTime(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), DayOpenHour, 0, 0, 0, date.Location())
}

// DateToMinutes returns the earliest working-minute index >= d. If d
// falls on a non-working day, it rounds forward to the opening of the
// next working day. Returns HorizonExceeded if no working day exists
// within the configured cap.
func (c *Calendar) DateToMinutes(d time.Time) (int, error) {
	cursor := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	for day := 0; day < c.horizonCap; day++ {
		date := cursor.AddDate(0, 0, day)
		if !c.IsWorkingDay(date) {
			continue
		}
		key := dateKey(date)
		idx, ok := c.dateToIndex[key]
		if !ok {
			// date lies beyond what extend() originally covered
			// relative to the product epoch; extend relative to
			// epoch so indices stay consistent.
			c.extend(int(date.Sub(c.epoch).Hours()/24) + 1)
			idx, ok = c.dateToIndex[key]
			if !ok {
				return 0, schedtypes.NewHorizonExceeded(c.horizonCap)
			}
		}
		// On d's own date, count the minutes already elapsed since
		// the day's opening; a clock time at or past the end of the
		// day's MinutesPerWorkingDay rounds forward to the next
		// working day's opening.
		if day == 0 {
			offset := int(d.Sub(c.openingTime(date)).Minutes())
			if offset >= MinutesPerWorkingDay {
				continue
			}
			if offset > 0 {
				idx += offset
			}
		}
		return idx, nil
	}
	return 0, schedtypes.NewHorizonExceeded(c.horizonCap)
}

// MinutesToDate is the inverse of DateToMinutes: it returns the
// wall-clock opening time of the working day that owns minute index m,
// plus m's offset into that day.
func (c *Calendar) MinutesToDate(m int) time.Time {
	dayIdx := m / MinutesPerWorkingDay
	if dayIdx < 0 {
		dayIdx = 0
	}
	if dayIdx >= len(c.indexToDate) {
		c.extend(c.horizonCap)
	}
	if dayIdx >= len(c.indexToDate) {
		if len(c.indexToDate) == 0 {
			return c.epoch
		}
		dayIdx = len(c.indexToDate) - 1
	}
	base := c.indexToDate[dayIdx]
	offset := m % MinutesPerWorkingDay
	return base.Add(time.Duration(offset) * time.Minute)
}

// WorkingDaysBetween returns the whole number of working-minute days
// between two minute indices (may be negative).
func WorkingDaysBetween(a, b int) int {
	return (b - a) / MinutesPerWorkingDay
}

// LatePartEarliestStart computes a late part's earliest possible start:
// onDock plus delayDays calendar days, snapped to the opening of the
// resulting (or next) working day.
func (c *Calendar) LatePartEarliestStart(onDock time.Time, delayDays int) (int, error) {
	target := onDock.AddDate(0, 0, delayDays)
	target = time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, target.Location())
	return c.DateToMinutes(target)
}

// ShiftWindow computes the wall-clock [start, end) working window for a
// shift on a given calendar date. Shift3 crosses midnight: its window
// runs from the given date's start clock to the following day's end
// clock.
func ShiftWindow(date time.Time, shift schedtypes.Shift) (start, end time.Time) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	start = day.Add(time.Duration(shift.StartMinute) * time.Minute)
	if shift.CrossesMidnight() {
		end = day.AddDate(0, 0, 1).Add(time.Duration(shift.EndMinute) * time.Minute)
	} else {
		end = day.Add(time.Duration(shift.EndMinute) * time.Minute)
	}
	return start, end
}

// FitsInWorkingInterval reports whether [start, start+durationMinutes)
// lies entirely inside one shift window on a working day, checking the
// windows that open on start's own date and on the prior day (so a
// shift3 tail from the prior day counts).
func FitsInWorkingInterval(start time.Time, durationMinutes int, shifts []schedtypes.Shift, holidays map[string]bool) bool {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	candidates := []time.Time{start, start.AddDate(0, 0, -1)}
	for _, day := range candidates {
		if !IsWorkingDay(day, holidays) {
			continue
		}
		for _, shift := range shifts {
			winStart, winEnd := ShiftWindow(day, shift)
			if !start.Before(winStart) && !end.After(winEnd) {
				return true
			}
		}
	}
	return false
}
