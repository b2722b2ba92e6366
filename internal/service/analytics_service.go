package service

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/habitlog/internal/habit"
)

// AnalyticsService 负责习惯的只读统计。
// 每次调用都从 RecordStore 拉取快照，不修改任何缓存字段。
type AnalyticsService struct {
	store RecordStore
	now   func() time.Time
}

// StreakLeaders 是某一周期下 streak 最高的习惯集合。
// Found 为 false 表示该周期下没有任何习惯。
type StreakLeaders struct {
	Periodicity habit.Periodicity
	Found       bool
	Streak      int
	Habits      []habit.Entry
}

// CategoryGroup 按发现顺序保存同一分类下的习惯
type CategoryGroup struct {
	Category string
	Habits   []habit.Entry
}

// CompletionEntry 是完成率排行中的一项
type CompletionEntry struct {
	ID          uint
	Title       string
	Periodicity habit.Periodicity
	Rate        habit.Rate
}

// Report 汇总最长 streak、分类分组与完成率排行
type Report struct {
	AsOf       time.Time
	Longest    []StreakLeaders
	Categories []CategoryGroup
	Completion []CompletionEntry
}

// NewAnalyticsService 创建 AnalyticsService
func NewAnalyticsService(store RecordStore) *AnalyticsService {
	return &AnalyticsService{store: store, now: time.Now}
}

// WithClock 允许在测试中固定"今天"
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *AnalyticsService) snapshot() ([]habit.Entry, error) {
	entries, err := s.store.GetAllHabits()
	if err != nil {
		return nil, fmt.Errorf("load habits: %w", err)
	}
	return entries, nil
}

// LongestStreaks 返回 daily 与 weekly 各自 streak 最高的全部习惯
func (s *AnalyticsService) LongestStreaks() ([]StreakLeaders, error) {
	entries, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return LongestStreaks(entries), nil
}

// GroupByCategory 按分类分组
func (s *AnalyticsService) GroupByCategory() ([]CategoryGroup, error) {
	entries, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return GroupByCategory(entries), nil
}

// CompletionRanking 按今天的完成率降序排列
func (s *AnalyticsService) CompletionRanking() ([]CompletionEntry, error) {
	entries, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return RankByCompletion(entries, habit.Day(s.now())), nil
}

// Report 基于同一份快照生成完整报表
func (s *AnalyticsService) Report() (*Report, error) {
	entries, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	asOf := habit.Day(s.now())
	return &Report{
		AsOf:       asOf,
		Longest:    LongestStreaks(entries),
		Categories: GroupByCategory(entries),
		Completion: RankByCompletion(entries, asOf),
	}, nil
}

// HabitStreak 根据打卡历史重新计算单个习惯的 streak，结果不回写
func (s *AnalyticsService) HabitStreak(id uint) (*habit.Habit, int, error) {
	h, err := s.store.GetHabit(id)
	if err != nil {
		return nil, 0, wrapStoreErr("get habit", err)
	}
	return h, habit.ComputeStreak(h.History, h.Periodicity), nil
}

// LongestStreaks 使用缓存的 streak 找出每个周期的最大值，并列的习惯全部保留
func LongestStreaks(entries []habit.Entry) []StreakLeaders {
	leaders := make([]StreakLeaders, 0, len(habit.Periodicities))
	for _, periodicity := range habit.Periodicities {
		current := StreakLeaders{Periodicity: periodicity}
		for _, entry := range entries {
			if entry.Habit.Periodicity != periodicity {
				continue
			}
			streak := entry.Habit.Streak
			switch {
			case !current.Found || streak > current.Streak:
				current.Found = true
				current.Streak = streak
				current.Habits = []habit.Entry{entry}
			case streak == current.Streak:
				current.Habits = append(current.Habits, entry)
			}
		}
		leaders = append(leaders, current)
	}
	return leaders
}

// GroupByCategory 将习惯按展示分类分组，分组与组内顺序均保持发现顺序
func GroupByCategory(entries []habit.Entry) []CategoryGroup {
	groups := make([]CategoryGroup, 0)
	index := make(map[string]int)

	for _, entry := range entries {
		category := entry.Habit.DisplayCategory()
		i, ok := index[category]
		if !ok {
			i = len(groups)
			index[category] = i
			groups = append(groups, CategoryGroup{Category: category})
		}
		groups[i].Habits = append(groups[i].Habits, entry)
	}
	return groups
}

// RankByCompletion 计算每个习惯截至 asOf 的完成率，并稳定地按百分比降序排列
func RankByCompletion(entries []habit.Entry, asOf time.Time) []CompletionEntry {
	ranking := make([]CompletionEntry, 0, len(entries))
	for _, entry := range entries {
		ranking = append(ranking, CompletionEntry{
			ID:          entry.ID,
			Title:       entry.Habit.Title,
			Periodicity: entry.Habit.Periodicity,
			Rate:        entry.Habit.Rate(asOf),
		})
	}

	slices.SortStableFunc(ranking, func(a, b CompletionEntry) int {
		return cmp.Compare(b.Rate.Percent, a.Rate.Percent)
	})
	return ranking
}
