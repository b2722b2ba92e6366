package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/habit"
	"github.com/habitlog/internal/service"
	"github.com/habitlog/internal/view"
)

// GetAnalytics 返回完整的统计报表
func (a *API) GetAnalytics(c *gin.Context) {
	report, err := a.analytics.Report()
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"as_of":      report.AsOf.Format(habit.DateLayout),
		"longest":    leadersToPayload(report.Longest),
		"categories": groupsToPayload(report.Categories),
		"completion": rankingToPayload(report.Completion),
	})
}

// GetAnalyticsText 以纯文本返回报表，与命令行输出一致
func (a *API) GetAnalyticsText(c *gin.Context) {
	report, err := a.analytics.Report()
	if err != nil {
		handleHabitError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := view.RenderReport(&buf, report); err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "报表生成失败")
		return
	}

	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

// GetLongestStreaks 返回每个周期 streak 最高的习惯
func (a *API) GetLongestStreaks(c *gin.Context) {
	leaders, err := a.analytics.LongestStreaks()
	if err != nil {
		handleHabitError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"longest": leadersToPayload(leaders)})
}

// GetCategoryGroups 返回按分类分组的习惯
func (a *API) GetCategoryGroups(c *gin.Context) {
	groups, err := a.analytics.GroupByCategory()
	if err != nil {
		handleHabitError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": groupsToPayload(groups)})
}

// GetCompletionRates 返回按完成率降序的排行
func (a *API) GetCompletionRates(c *gin.Context) {
	ranking, err := a.analytics.CompletionRanking()
	if err != nil {
		handleHabitError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completion": rankingToPayload(ranking)})
}

// GetHabitStreak 返回缓存 streak 与根据历史重算的 streak
func (a *API) GetHabitStreak(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	h, recomputed, err := a.analytics.HabitStreak(id)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          id,
		"title":       h.Title,
		"periodicity": h.Periodicity,
		"unit":        h.Periodicity.Unit(),
		"streak":      h.Streak,
		"recomputed":  recomputed,
	})
}

func leadersToPayload(leaders []service.StreakLeaders) []gin.H {
	items := make([]gin.H, 0, len(leaders))
	for _, group := range leaders {
		items = append(items, gin.H{
			"periodicity": group.Periodicity,
			"found":       group.Found,
			"streak":      group.Streak,
			"unit":        group.Periodicity.Unit(),
			"habits":      briefEntries(group.Habits),
		})
	}
	return items
}

func groupsToPayload(groups []service.CategoryGroup) []gin.H {
	items := make([]gin.H, 0, len(groups))
	for _, group := range groups {
		items = append(items, gin.H{
			"category": group.Category,
			"habits":   briefEntries(group.Habits),
		})
	}
	return items
}

func rankingToPayload(ranking []service.CompletionEntry) []gin.H {
	items := make([]gin.H, 0, len(ranking))
	for _, entry := range ranking {
		items = append(items, gin.H{
			"id":          entry.ID,
			"title":       entry.Title,
			"periodicity": entry.Periodicity,
			"completion":  rateToPayload(entry.Rate),
		})
	}
	return items
}

func briefEntries(entries []habit.Entry) []gin.H {
	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		items = append(items, gin.H{
			"id":     entry.ID,
			"title":  entry.Habit.Title,
			"streak": entry.Habit.Streak,
		})
	}
	return items
}
