package habit

import (
	"fmt"
	"strings"
)

// Periodicity 表示打卡周期
type Periodicity string

const (
	Daily  Periodicity = "daily"
	Weekly Periodicity = "weekly"
)

// Periodicities 按展示顺序列出全部周期
var Periodicities = []Periodicity{Daily, Weekly}

// ParsePeriodicity 解析用户输入，大小写与首尾空白不敏感
func ParsePeriodicity(raw string) (Periodicity, error) {
	p := Periodicity(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriodicity, raw)
	}
	return p, nil
}

// Valid 报告周期是否受支持
func (p Periodicity) Valid() bool {
	return p == Daily || p == Weekly
}

// Continues 判断相邻两次打卡间隔 delta 天是否延续连胜
func (p Periodicity) Continues(delta int) bool {
	switch p {
	case Daily:
		return delta == 1
	case Weekly:
		return delta >= 7 && delta < 14
	default:
		return false
	}
}

// Unit 返回 streak 的计量单位，用于报表
func (p Periodicity) Unit() string {
	if p == Weekly {
		return "weeks"
	}
	return "days"
}

func (p Periodicity) String() string {
	return string(p)
}
