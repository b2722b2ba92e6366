package service

import (
	"fmt"
	"time"

	"github.com/habitlog/internal/habit"
)

type seedHabit struct {
	Title       string
	Description string
	Periodicity habit.Periodicity
	Category    string
}

// defaultHabits 是空库启动时写入的示例习惯
var defaultHabits = []seedHabit{
	{Title: "Drink Water", Description: "Drink 8 cups of water", Periodicity: habit.Daily, Category: "Health"},
	{Title: "Exercise", Description: "Daily exercise for 30 minutes", Periodicity: habit.Daily, Category: "Fitness"},
	{Title: "Read Book", Description: "Read at least 10 pages", Periodicity: habit.Daily, Category: "Learning"},
	{Title: "Weekly Groceries", Description: "Do groceries every Saturday", Periodicity: habit.Weekly, Category: "Chores"},
	{Title: "Clean Room", Description: "Clean room every weekend", Periodicity: habit.Weekly, Category: "Chores"},
}

const (
	seedDailyDays   = 28
	seedWeeklyWeeks = 4
)

// SeedDefaults 在库为空时写入示例习惯，并补录截至昨天的四周打卡。
// 库中已有习惯时不做任何事，返回写入的习惯数。
func (s *HabitService) SeedDefaults() (int, error) {
	existing, err := s.store.GetAllHabits()
	if err != nil {
		return 0, fmt.Errorf("list habits: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	today := s.Today()
	for _, item := range defaultHabits {
		h, err := habit.New(item.Title, item.Description, item.Periodicity, item.Category, today)
		if err != nil {
			return 0, err
		}

		id, err := s.store.StoreHabit(h)
		if err != nil {
			return 0, fmt.Errorf("seed habit %q: %w", item.Title, err)
		}

		for _, date := range seedDates(item.Periodicity, today) {
			if err := s.store.StoreCompletionRecord(id, date); err != nil {
				return 0, fmt.Errorf("seed completion for %q: %w", item.Title, err)
			}
			h.History = append(h.History, date)
		}

		h.Recompute()
		if err := s.store.UpdateHabit(id, h); err != nil {
			return 0, fmt.Errorf("seed habit %q: %w", item.Title, err)
		}
	}

	return len(defaultHabits), nil
}

// seedDates 返回从昨天(或上周)往前回溯的打卡日期，不包含今天
func seedDates(periodicity habit.Periodicity, today time.Time) []time.Time {
	var dates []time.Time
	switch periodicity {
	case habit.Weekly:
		for i := 1; i <= seedWeeklyWeeks; i++ {
			dates = append(dates, today.AddDate(0, 0, -7*i))
		}
	default:
		for i := 1; i <= seedDailyDays; i++ {
			dates = append(dates, today.AddDate(0, 0, -i))
		}
	}
	return dates
}
