package heuristic

import (
	"time"

	"github.com/jaredv/focus-scheduler/pkg/calendar"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
)

// roundUpToQuarterHour rounds t forward to the next 15-minute mark.
func roundUpToQuarterHour(t time.Time) time.Time {
	m := t.Minute()
	if m%15 == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t
	}
	rounded := ((m / 15) + 1) * 15
	base := t.Truncate(time.Minute).Add(-time.Duration(m) * time.Minute)
	if rounded >= 60 {
		return base.Add(time.Hour)
	}
	return base.Add(time.Duration(rounded) * time.Minute)
}

// conflictingHeadcount sums the headcount already committed to
// resourceKey in [start, end) across the current schedule.
func (s *Scheduler) conflictingHeadcount(resourceKey string, start, end time.Time) int {
	total := 0
	for id, entry := range s.schedule {
		if entry.Resource.String() != resourceKey {
			continue
		}
		eStart, eEnd := s.entryWindow(id)
		if eStart.Before(end) && eEnd.After(start) {
			if inst := s.instances[id]; inst != nil {
				total += inst.Headcount
			}
		}
	}
	return total
}

// findSlot searches forward from `from`, at most maxDaysAhead calendar
// days, for the first shift window (in list order) with enough free
// capacity to hold a duration-minute task, rounding candidate starts
// up to the next 15-minute mark. Mirrors
// get_next_working_time_with_capacity.
func (s *Scheduler) findSlot(from time.Time, product string, resourceKey string, capacity, headcountNeeded, duration int, shifts []schedtypes.Shift, maxDaysAhead int) (time.Time, schedtypes.ShiftID, bool) {
	if capacity == 0 || headcountNeeded > capacity {
		return time.Time{}, "", false
	}
	holidays := s.holidaysByProduct[product]

	for daysAhead := 0; daysAhead < maxDaysAhead; daysAhead++ {
		checkDate := from.AddDate(0, 0, daysAhead)
		checkDate = time.Date(checkDate.Year(), checkDate.Month(), checkDate.Day(), 0, 0, 0, 0, checkDate.Location())
		if !calendar.IsWorkingDay(checkDate, holidays) {
			continue
		}

		for _, shift := range shifts {
			shiftStart, shiftEnd := calendar.ShiftWindow(checkDate, shift)
			if daysAhead == 0 && shift.CrossesMidnight() && from.Hour() < shift.EndMinute/60+1 {
				prevDay := checkDate.AddDate(0, 0, -1)
				shiftStart, shiftEnd = calendar.ShiftWindow(prevDay, shift)
			}
			if !shiftEnd.After(from) {
				continue
			}

			candidate := shiftStart
			if from.After(candidate) {
				candidate = from
			}
			candidate = roundUpToQuarterHour(candidate)

			taskEnd := candidate.Add(time.Duration(duration) * time.Minute)
			if taskEnd.After(shiftEnd) {
				continue
			}

			used := s.conflictingHeadcount(resourceKey, candidate, taskEnd)
			if capacity-used >= headcountNeeded {
				return candidate, shift.ID, true
			}
		}
	}
	return time.Time{}, "", false
}

func (s *Scheduler) entryWindow(instanceID string) (time.Time, time.Time) {
	e := s.schedule[instanceID]
	if e == nil {
		return time.Time{}, time.Time{}
	}
	return s.startTimes[instanceID], s.endTimes[instanceID]
}
