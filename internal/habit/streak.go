package habit

import (
	"slices"
	"time"
)

const DateLayout = "2006-01-02"

// Day 将时间归一到 UTC 零点，作为日历日使用
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay 解析 YYYY-MM-DD
func ParseDay(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

// DaysBetween 返回 from 到 to 相差的整天数
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}

// ComputeStreak 按时间升序遍历历史，返回以最近一次打卡结尾的连续段长度。
// 断档后从 1 重新计数，因为断档当天本身是一次有效打卡。
func ComputeStreak(history []time.Time, periodicity Periodicity) int {
	if len(history) == 0 {
		return 0
	}

	sorted := make([]time.Time, len(history))
	for i, d := range history {
		sorted[i] = Day(d)
	}
	slices.SortFunc(sorted, func(a, b time.Time) int {
		return a.Compare(b)
	})

	streak := 1
	for i := 1; i < len(sorted); i++ {
		if periodicity.Continues(DaysBetween(sorted[i-1], sorted[i])) {
			streak++
		} else {
			streak = 1
		}
	}
	return streak
}

// UpdateStreak 是新增一次打卡时的增量版本，结果必须与 ComputeStreak 一致。
// 同日重复打卡由调用方拦截。
func UpdateStreak(current int, last *time.Time, date time.Time, periodicity Periodicity) int {
	if last == nil {
		return 1
	}
	if periodicity.Continues(DaysBetween(*last, date)) {
		return current + 1
	}
	return 1
}
