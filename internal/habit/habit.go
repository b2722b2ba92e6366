package habit

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// Uncategorized 是未设置分类时在展示/统计中使用的名称，不会写入存储
const Uncategorized = "Uncategorized"

var (
	// ErrNotFound 在指定习惯不存在时返回
	ErrNotFound = errors.New("habit not found")
	// ErrAlreadyCompletedToday 表示今天已经打过卡
	ErrAlreadyCompletedToday = errors.New("habit already completed today")
	// ErrInvalidPeriodicity 当周期不是 daily/weekly 时返回
	ErrInvalidPeriodicity = errors.New("invalid habit periodicity")
	// ErrEmptyTitle 习惯标题不能为空
	ErrEmptyTitle = errors.New("habit title is required")
)

// Habit 是习惯实体
// History 以插入顺序保存打卡日期，同一天最多一条；Streak 只是 History 的缓存投影
type Habit struct {
	Title          string
	Description    string
	Periodicity    Periodicity
	Category       string
	CreationDate   time.Time
	History        []time.Time
	LastCompletion *time.Time
	Streak         int
}

// Entry 将存储分配的 ID 与习惯绑定
type Entry struct {
	ID    uint
	Habit *Habit
}

// Changes 描述编辑时需要替换的字段，nil 表示保持原值
type Changes struct {
	Title       *string
	Description *string
	Periodicity *Periodicity
	Category    *string
}

// New 创建一个空历史、streak 为 0 的习惯
func New(title, description string, periodicity Periodicity, category string, today time.Time) (*Habit, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if !periodicity.Valid() {
		return nil, ErrInvalidPeriodicity
	}

	return &Habit{
		Title:        title,
		Description:  strings.TrimSpace(description),
		Periodicity:  periodicity,
		Category:     strings.TrimSpace(category),
		CreationDate: Day(today),
	}, nil
}

// Complete 记录今天的打卡。今天已完成时返回 ErrAlreadyCompletedToday 且不做任何修改。
func (h *Habit) Complete(today time.Time) error {
	today = Day(today)
	if h.LastCompletion != nil && h.LastCompletion.Equal(today) {
		return ErrAlreadyCompletedToday
	}
	if h.CompletedOn(today) {
		return ErrAlreadyCompletedToday
	}

	h.History = append(h.History, today)

	// 增量更新只对时间单调递增的打卡成立，否则退回全量重算
	if h.LastCompletion != nil && today.Before(*h.LastCompletion) {
		h.Recompute()
		return nil
	}

	h.Streak = UpdateStreak(h.Streak, h.LastCompletion, today, h.Periodicity)
	h.LastCompletion = &today
	return nil
}

// Recompute 根据 History 重新推导 Streak 与 LastCompletion
func (h *Habit) Recompute() {
	h.Streak = ComputeStreak(h.History, h.Periodicity)
	h.LastCompletion = nil
	for _, d := range h.History {
		day := Day(d)
		if h.LastCompletion == nil || day.After(*h.LastCompletion) {
			h.LastCompletion = &day
		}
	}
}

// Apply 按字段替换，不触碰历史与 streak
func (h *Habit) Apply(changes Changes) error {
	if changes.Title != nil {
		title := strings.TrimSpace(*changes.Title)
		if title == "" {
			return ErrEmptyTitle
		}
		h.Title = title
	}
	if changes.Periodicity != nil {
		if !changes.Periodicity.Valid() {
			return ErrInvalidPeriodicity
		}
		h.Periodicity = *changes.Periodicity
	}
	if changes.Description != nil {
		h.Description = strings.TrimSpace(*changes.Description)
	}
	if changes.Category != nil {
		h.Category = strings.TrimSpace(*changes.Category)
	}
	return nil
}

// CompletedOn 判断某天是否已有打卡
func (h *Habit) CompletedOn(day time.Time) bool {
	day = Day(day)
	return slices.ContainsFunc(h.History, func(d time.Time) bool {
		return Day(d).Equal(day)
	})
}

// Pending 判断当前周期内是否还需要打卡。
// daily: 今天未完成；weekly: 从未完成或距上次完成已满 7 天。
func (h *Habit) Pending(today time.Time) bool {
	if h.LastCompletion == nil {
		return true
	}
	switch h.Periodicity {
	case Weekly:
		return DaysBetween(*h.LastCompletion, today) >= 7
	default:
		return !h.LastCompletion.Equal(Day(today))
	}
}

// DisplayCategory 返回用于展示的分类
func (h *Habit) DisplayCategory() string {
	if strings.TrimSpace(h.Category) == "" {
		return Uncategorized
	}
	return h.Category
}

// Rate 计算截至 asOf 的完成率
func (h *Habit) Rate(asOf time.Time) Rate {
	return CompletionRate(h.History, h.Periodicity, asOf)
}
