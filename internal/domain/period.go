package domain

import "time"

// MonthRange 返回 day 所在月份的 [start, end) 区间。
func MonthRange(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 1, 0)
}

// DayRange 返回 day 所在自然日的 [start, end) 区间。
func DayRange(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}

// YearStart 返回 day 所在年份的起始时间（员工增长数以本年为界）。
func YearStart(day time.Time) time.Time {
	return time.Date(day.Year(), 1, 1, 0, 0, 0, 0, day.Location())
}

// DaysOfMonth 枚举 month 所在月份的每个自然日起点，不超过 now 所在日。
// 月度重算按日推进，未到的日期没有数据，不必空算。
func DaysOfMonth(month time.Time, now time.Time) []time.Time {
	start, end := MonthRange(month)
	today, _ := DayRange(now)
	var days []time.Time
	for d := start; d.Before(end) && !d.After(today); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
