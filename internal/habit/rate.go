package habit

import "time"

// Rate 汇总实际完成数、期望完成数与百分比
type Rate struct {
	Actual   int
	Expected int
	Percent  float64
}

// CompletionRate 以首次打卡为起点计算截至 asOf 的完成率。
// 空历史返回全零；补录导致的超过 100% 不做截断。
func CompletionRate(history []time.Time, periodicity Periodicity, asOf time.Time) Rate {
	if len(history) == 0 {
		return Rate{}
	}

	first := Day(history[0])
	for _, d := range history[1:] {
		if day := Day(d); day.Before(first) {
			first = day
		}
	}

	days := DaysBetween(first, asOf)

	var expected int
	switch periodicity {
	case Weekly:
		expected = floorDiv(days, 7) + 1
	default:
		expected = days + 1
	}

	rate := Rate{Actual: len(history), Expected: expected}
	if expected > 0 {
		rate.Percent = float64(rate.Actual) / float64(expected) * 100
	}
	return rate
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
