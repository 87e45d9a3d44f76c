package calendar

import (
	"testing"
	"time"

	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestDateToMinutesSkipsWeekend(t *testing.T) {
	epoch := mustDate(t, "2026-07-30") // Thursday
	cal := New(epoch, nil, 0)

	idx0, err := cal.DateToMinutes(epoch)
	require.NoError(t, err)
	require.Equal(t, 0, idx0)

	// Friday is the next working day.
	friday := mustDate(t, "2026-07-31")
	idxFri, err := cal.DateToMinutes(friday)
	require.NoError(t, err)
	require.Equal(t, MinutesPerWorkingDay, idxFri)

	// Saturday rounds forward to the following Monday.
	saturday := mustDate(t, "2026-08-01")
	idxMon, err := cal.DateToMinutes(saturday)
	require.NoError(t, err)
	require.Equal(t, 2*MinutesPerWorkingDay, idxMon)
}

func TestDateToMinutesSkipsHoliday(t *testing.T) {
	epoch := mustDate(t, "2026-07-30")
	holidays := map[string]bool{"2026-07-31": true}
	cal := New(epoch, holidays, 0)

	idxMon, err := cal.DateToMinutes(mustDate(t, "2026-07-31"))
	require.NoError(t, err)
	// Thursday (0), holiday Friday skipped, next working day is Monday.
	require.Equal(t, MinutesPerWorkingDay, idxMon)
}

func TestMinutesToDateInverse(t *testing.T) {
	epoch := mustDate(t, "2026-07-30")
	cal := New(epoch, nil, 0)

	for _, m := range []int{0, MinutesPerWorkingDay, 5 * MinutesPerWorkingDay} {
		d := cal.MinutesToDate(m)
		back, err := cal.DateToMinutes(d)
		require.NoError(t, err)
		require.Equal(t, m, back)
	}
}

func TestLatePartEarliestStart(t *testing.T) {
	epoch := mustDate(t, "2026-07-30")
	cal := New(epoch, nil, 0)

	onDock := mustDate(t, "2026-07-30")
	idx, err := cal.LatePartEarliestStart(onDock, 1)
	require.NoError(t, err)
	require.Equal(t, MinutesPerWorkingDay, idx)
}

func TestShiftWindowCrossesMidnight(t *testing.T) {
	shift3 := schedtypes.Shift{ID: schedtypes.Shift3, StartMinute: 22 * 60, EndMinute: 6 * 60}
	require.True(t, shift3.CrossesMidnight())

	day := mustDate(t, "2026-07-30")
	start, end := ShiftWindow(day, shift3)
	require.Equal(t, 22, start.Hour())
	require.Equal(t, 31, end.Day())
	require.Equal(t, 6, end.Hour())
}

func TestFitsInWorkingIntervalRejectsSplit(t *testing.T) {
	shift1 := schedtypes.Shift{ID: schedtypes.Shift1, StartMinute: 6 * 60, EndMinute: 14 * 60}
	day := mustDate(t, "2026-07-30")

	ok := FitsInWorkingInterval(day.Add(13*time.Hour), 90, []schedtypes.Shift{shift1}, nil)
	require.False(t, ok, "task spanning past shift end must not fit")

	ok = FitsInWorkingInterval(day.Add(6*time.Hour), 90, []schedtypes.Shift{shift1}, nil)
	require.True(t, ok)
}
