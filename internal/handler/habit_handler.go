package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/habit"
	"github.com/habitlog/internal/service"
	"github.com/habitlog/internal/view"
)

type habitPayload struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Periodicity *string `json:"periodicity"`
	Category    *string `json:"category"`
}

// ListHabits 返回习惯表格数据，可按周期筛选
func (a *API) ListHabits(c *gin.Context) {
	rows, err := a.habits.Listing(c.Query("periodicity"))
	if err != nil {
		handleHabitError(c, err)
		return
	}

	items := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		items = append(items, rowToPayload(row))
	}

	c.JSON(http.StatusOK, gin.H{"habits": items})
}

// ListPendingHabits 返回当前周期内尚未完成的习惯
func (a *API) ListPendingHabits(c *gin.Context) {
	entries, err := a.habits.Pending()
	if err != nil {
		handleHabitError(c, err)
		return
	}

	today := a.habits.Today()
	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		items = append(items, habitToPayload(entry.ID, entry.Habit, today))
	}

	c.JSON(http.StatusOK, gin.H{"habits": items, "date": today.Format(habit.DateLayout)})
}

// GetHabit 返回单个习惯详情
func (a *API) GetHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	h, err := a.habits.Get(id)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(id, h, a.habits.Today())})
}

// CreateHabit 创建习惯
func (a *API) CreateHabit(c *gin.Context) {
	payload, ok := parseHabitPayload(c)
	if !ok {
		return
	}

	if payload.Title == nil || strings.TrimSpace(*payload.Title) == "" {
		respondError(c, http.StatusBadRequest, "习惯标题不能为空")
		return
	}
	if payload.Periodicity == nil {
		respondError(c, http.StatusBadRequest, "请选择打卡周期")
		return
	}

	entry, err := a.habits.Create(service.HabitInput{
		Title:       *payload.Title,
		Description: deref(payload.Description),
		Periodicity: *payload.Periodicity,
		Category:    deref(payload.Category),
	})
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"habit": habitToPayload(entry.ID, entry.Habit, a.habits.Today())})
}

// UpdateHabit 按字段编辑习惯，未提供的字段保持原值
func (a *API) UpdateHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	payload, ok := parseHabitPayload(c)
	if !ok {
		return
	}

	h, err := a.habits.Edit(id, service.HabitChanges{
		Title:       payload.Title,
		Description: payload.Description,
		Periodicity: payload.Periodicity,
		Category:    payload.Category,
	})
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(id, h, a.habits.Today())})
}

// DeleteHabit 删除习惯及其打卡记录
func (a *API) DeleteHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	if err := a.habits.Delete(id); err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true, "id": id})
}

// ClearHabits 清空全部习惯，需要 confirm=yes
func (a *API) ClearHabits(c *gin.Context) {
	if c.Query("confirm") != "yes" {
		respondError(c, http.StatusBadRequest, "清空数据需要确认")
		return
	}

	if err := a.habits.Clear(); err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// CompleteHabit 为习惯记录今天的打卡
func (a *API) CompleteHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	h, err := a.habits.Complete(id)
	if errors.Is(err, habit.ErrAlreadyCompletedToday) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "今天已经打过卡",
			"habit": habitToPayload(id, h, a.habits.Today()),
		})
		return
	}
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(id, h, a.habits.Today())})
}

func parseHabitPayload(c *gin.Context) (habitPayload, bool) {
	var payload habitPayload

	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "请求参数不合法") {
			return habitPayload{}, false
		}
		return payload, true
	}

	payload.Title = optionalPostForm(c, "title")
	payload.Description = optionalPostForm(c, "description")
	payload.Periodicity = optionalPostForm(c, "periodicity")
	payload.Category = optionalPostForm(c, "category")
	return payload, true
}

func habitToPayload(id uint, h *habit.Habit, asOf time.Time) gin.H {
	history := make([]string, 0, len(h.History))
	for _, d := range h.History {
		history = append(history, d.Format(habit.DateLayout))
	}

	item := gin.H{
		"id":                   id,
		"title":                h.Title,
		"description":          h.Description,
		"periodicity":          h.Periodicity,
		"category":             h.Category,
		"display_category":     h.DisplayCategory(),
		"creation_date":        h.CreationDate.Format(habit.DateLayout),
		"streak":               h.Streak,
		"last_completion_date": nil,
		"history":              history,
		"completion":           rateToPayload(h.Rate(asOf)),
	}

	if h.LastCompletion != nil {
		item["last_completion_date"] = h.LastCompletion.Format(habit.DateLayout)
	}

	if html, err := view.RenderMarkdown(h.Description); err == nil {
		item["description_html"] = string(html)
	} else {
		log.Printf("render habit description %d: %v", id, err)
	}

	return item
}

func rowToPayload(row service.HabitRow) gin.H {
	return gin.H{
		"id":                 row.ID,
		"title":              row.Title,
		"category":           row.Category,
		"periodicity":        row.Periodicity,
		"streak":             row.Streak,
		"completion_percent": row.Rate.Percent,
		"last_completed":     row.LastCompleted,
	}
}

func rateToPayload(rate habit.Rate) gin.H {
	return gin.H{
		"actual":   rate.Actual,
		"expected": rate.Expected,
		"percent":  rate.Percent,
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func handleHabitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, habit.ErrNotFound):
		respondError(c, http.StatusNotFound, "习惯不存在")
	case errors.Is(err, habit.ErrInvalidPeriodicity):
		respondError(c, http.StatusBadRequest, "周期只能是 daily 或 weekly")
	case errors.Is(err, habit.ErrEmptyTitle):
		respondError(c, http.StatusBadRequest, "习惯标题不能为空")
	case errors.Is(err, habit.ErrAlreadyCompletedToday):
		respondError(c, http.StatusConflict, "今天已经打过卡")
	default:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
