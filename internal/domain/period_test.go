package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(time.Date(2026, 8, 12, 15, 4, 5, 0, time.Local))
	assert.True(t, start.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.Local)))
	assert.True(t, end.Equal(time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local)))
}

func TestDayRange(t *testing.T) {
	start, end := DayRange(time.Date(2026, 8, 12, 15, 4, 5, 0, time.Local))
	assert.True(t, start.Equal(time.Date(2026, 8, 12, 0, 0, 0, 0, time.Local)))
	assert.True(t, end.Equal(time.Date(2026, 8, 13, 0, 0, 0, 0, time.Local)))
}

func TestDaysOfMonth(t *testing.T) {
	month := time.Date(2026, 8, 1, 0, 0, 0, 0, time.Local)

	// 当月：只枚举到今天
	now := time.Date(2026, 8, 12, 23, 0, 0, 0, time.Local)
	days := DaysOfMonth(month, now)
	require.Len(t, days, 12)
	assert.True(t, days[0].Equal(month))
	assert.True(t, days[11].Equal(time.Date(2026, 8, 12, 0, 0, 0, 0, time.Local)))

	// 历史月：整月
	days = DaysOfMonth(time.Date(2026, 7, 1, 0, 0, 0, 0, time.Local), now)
	assert.Len(t, days, 31)

	// 未来月：没有可算的日期
	days = DaysOfMonth(time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local), now)
	assert.Empty(t, days)
}
