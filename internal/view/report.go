package view

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/habitlog/internal/habit"
	"github.com/habitlog/internal/service"
)

// RenderReport 以纯文本输出完整统计报表
func RenderReport(w io.Writer, report *service.Report) error {
	if _, err := fmt.Fprintln(w, "--- Longest Streak ---"); err != nil {
		return err
	}
	if err := RenderLongest(w, report.Longest); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "\n--- Habits by Category ---"); err != nil {
		return err
	}
	if err := RenderCategories(w, report.Categories); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "\n--- Completion Rates (sorted by highest to lowest) ---"); err != nil {
		return err
	}
	return RenderCompletion(w, report.Completion)
}

// RenderLongest 输出每个周期 streak 最高的习惯
func RenderLongest(w io.Writer, leaders []service.StreakLeaders) error {
	for _, group := range leaders {
		if !group.Found {
			if _, err := fmt.Fprintf(w, "No %s habits found.\n", group.Periodicity); err != nil {
				return err
			}
			continue
		}

		unit := group.Periodicity.Unit()
		if _, err := fmt.Fprintf(w, "Longest streak for %s habits: %d %s\n", group.Periodicity, group.Streak, unit); err != nil {
			return err
		}
		for _, entry := range group.Habits {
			if _, err := fmt.Fprintf(w, "  - Habit '%s' with a streak of %d %s\n", entry.Habit.Title, entry.Habit.Streak, unit); err != nil {
				return err
			}
		}
	}
	return nil
}

// RenderCategories 输出按分类分组的习惯
func RenderCategories(w io.Writer, groups []service.CategoryGroup) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, "No habits found.")
		return err
	}
	for _, group := range groups {
		if _, err := fmt.Fprintf(w, "Category: %s\n", group.Category); err != nil {
			return err
		}
		for _, entry := range group.Habits {
			if _, err := fmt.Fprintf(w, "    Title: %s, Streak: %d\n", entry.Habit.Title, entry.Habit.Streak); err != nil {
				return err
			}
		}
	}
	return nil
}

// RenderCompletion 输出完成率排行
func RenderCompletion(w io.Writer, ranking []service.CompletionEntry) error {
	if len(ranking) == 0 {
		_, err := fmt.Fprintln(w, "No habits found.")
		return err
	}
	for _, item := range ranking {
		if _, err := fmt.Fprintf(w, "Habit: %s, Completion Rate: %.2f%% (Actual: %d, Expected: %d)\n",
			item.Title, item.Rate.Percent, item.Rate.Actual, item.Rate.Expected); err != nil {
			return err
		}
	}
	return nil
}

// RenderTable 以表格输出习惯列表
func RenderTable(w io.Writer, rows []service.HabitRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tPERIODICITY\tSTREAK\tCOMPLETION\tLAST COMPLETED")
	for _, row := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%.2f%%\t%s\n",
			row.ID, row.Title, row.Category, row.Periodicity, row.Streak, row.Rate.Percent, row.LastCompleted)
	}
	return tw.Flush()
}

// RenderPending 输出当前周期内尚未完成的习惯
func RenderPending(w io.Writer, entries []habit.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "All habits have been completed for today!")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tPERIODICITY\tLAST COMPLETED")
	for _, entry := range entries {
		last := service.NeverCompleted
		if entry.Habit.LastCompletion != nil {
			last = entry.Habit.LastCompletion.Format(habit.DateLayout)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			entry.ID, entry.Habit.Title, entry.Habit.DisplayCategory(), entry.Habit.Periodicity, last)
	}
	return tw.Flush()
}
