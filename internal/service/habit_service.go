package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/habitlog/internal/habit"
)

// RecordStore 是习惯与打卡记录的持久化协作者，由 db.Store 实现
type RecordStore interface {
	GetAllHabits() ([]habit.Entry, error)
	GetHabit(id uint) (*habit.Habit, error)
	GetHabitsByPeriodicity(periodicity habit.Periodicity) ([]habit.Entry, error)
	StoreHabit(h *habit.Habit) (uint, error)
	UpdateHabit(id uint, h *habit.Habit) error
	DeleteHabit(id uint) error
	StoreCompletionRecord(id uint, date time.Time) error
	GetCompletionHistory(id uint) ([]time.Time, error)
	ClearAll() error
}

// NeverCompleted 是从未打卡时列表中展示的文本
const NeverCompleted = "Never"

// HabitService 负责习惯的创建、打卡、编辑与删除
// 不做任何交互式确认，确认逻辑由 CLI/HTTP 外层决定是否调用
type HabitService struct {
	store                        RecordStore
	now                          func() time.Time
	recomputeOnPeriodicityChange bool
}

// HabitInput 定义创建习惯时的字段，Periodicity 为原始输入
type HabitInput struct {
	Title       string
	Description string
	Periodicity string
	Category    string
}

// HabitChanges 定义编辑时的字段，nil 表示保持原值
type HabitChanges struct {
	Title       *string
	Description *string
	Periodicity *string
	Category    *string
}

// HabitRow 是表格列表中的一行
type HabitRow struct {
	ID            uint
	Title         string
	Category      string
	Periodicity   habit.Periodicity
	Streak        int
	Rate          habit.Rate
	LastCompleted string
}

// NewHabitService 构造 HabitService
func NewHabitService(store RecordStore) *HabitService {
	return &HabitService{store: store, now: time.Now}
}

// WithClock 允许在测试中固定"今天"
func (s *HabitService) WithClock(now func() time.Time) *HabitService {
	if now != nil {
		s.now = now
	}
	return s
}

// WithRecomputeOnPeriodicityChange 控制编辑周期后是否按新周期重算 streak，默认不重算
func (s *HabitService) WithRecomputeOnPeriodicityChange(enabled bool) *HabitService {
	s.recomputeOnPeriodicityChange = enabled
	return s
}

// Today 返回服务时钟下的当天日期
func (s *HabitService) Today() time.Time {
	return habit.Day(s.now())
}

// Create 新建习惯
func (s *HabitService) Create(input HabitInput) (habit.Entry, error) {
	periodicity, err := habit.ParsePeriodicity(input.Periodicity)
	if err != nil {
		return habit.Entry{}, err
	}

	h, err := habit.New(input.Title, input.Description, periodicity, input.Category, s.Today())
	if err != nil {
		return habit.Entry{}, err
	}

	id, err := s.store.StoreHabit(h)
	if err != nil {
		return habit.Entry{}, fmt.Errorf("create habit: %w", err)
	}
	return habit.Entry{ID: id, Habit: h}, nil
}

// Get 根据 ID 获取习惯
func (s *HabitService) Get(id uint) (*habit.Habit, error) {
	h, err := s.store.GetHabit(id)
	if err != nil {
		return nil, wrapStoreErr("get habit", err)
	}
	return h, nil
}

// List 返回习惯集合，periodicity 为空时返回全部
func (s *HabitService) List(periodicity string) ([]habit.Entry, error) {
	if periodicity == "" {
		entries, err := s.store.GetAllHabits()
		if err != nil {
			return nil, fmt.Errorf("list habits: %w", err)
		}
		return entries, nil
	}

	p, err := habit.ParsePeriodicity(periodicity)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.GetHabitsByPeriodicity(p)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return entries, nil
}

// Complete 为习惯记录今天的打卡。
// 今天已打卡时返回当前习惯与 habit.ErrAlreadyCompletedToday，历史保持不变。
func (s *HabitService) Complete(id uint) (*habit.Habit, error) {
	h, err := s.store.GetHabit(id)
	if err != nil {
		return nil, wrapStoreErr("complete habit", err)
	}

	today := s.Today()
	if err := h.Complete(today); err != nil {
		return h, err
	}

	if err := s.store.StoreCompletionRecord(id, today); err != nil {
		return nil, wrapStoreErr("store completion", err)
	}
	if err := s.store.UpdateHabit(id, h); err != nil {
		return nil, wrapStoreErr("update habit", err)
	}
	return h, nil
}

// Edit 按字段替换习惯信息，不触碰打卡历史
func (s *HabitService) Edit(id uint, changes HabitChanges) (*habit.Habit, error) {
	domainChanges := habit.Changes{
		Title:       changes.Title,
		Description: changes.Description,
		Category:    changes.Category,
	}
	if changes.Periodicity != nil && *changes.Periodicity != "" {
		p, err := habit.ParsePeriodicity(*changes.Periodicity)
		if err != nil {
			return nil, err
		}
		domainChanges.Periodicity = &p
	}
	if changes.Title != nil && *changes.Title == "" {
		domainChanges.Title = nil
	}

	h, err := s.store.GetHabit(id)
	if err != nil {
		return nil, wrapStoreErr("edit habit", err)
	}

	previous := h.Periodicity
	if err := h.Apply(domainChanges); err != nil {
		return nil, err
	}
	if s.recomputeOnPeriodicityChange && h.Periodicity != previous {
		h.Recompute()
	}

	if err := s.store.UpdateHabit(id, h); err != nil {
		return nil, wrapStoreErr("update habit", err)
	}
	return h, nil
}

// Delete 删除习惯及其打卡记录
func (s *HabitService) Delete(id uint) error {
	if err := s.store.DeleteHabit(id); err != nil {
		return wrapStoreErr("delete habit", err)
	}
	return nil
}

// Clear 清空全部数据并重置 ID
func (s *HabitService) Clear() error {
	if err := s.store.ClearAll(); err != nil {
		return fmt.Errorf("clear habits: %w", err)
	}
	return nil
}

// Pending 返回当前周期内尚未完成的习惯
func (s *HabitService) Pending() ([]habit.Entry, error) {
	entries, err := s.store.GetAllHabits()
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	today := s.Today()
	pending := make([]habit.Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.Habit.Pending(today) {
			pending = append(pending, entry)
		}
	}
	return pending, nil
}

// Listing 返回表格展示所需的行
func (s *HabitService) Listing(periodicity string) ([]HabitRow, error) {
	entries, err := s.List(periodicity)
	if err != nil {
		return nil, err
	}
	return BuildRows(entries, s.Today()), nil
}

// BuildRows 将习惯转换为表格行，完成率截至 asOf
func BuildRows(entries []habit.Entry, asOf time.Time) []HabitRow {
	rows := make([]HabitRow, 0, len(entries))
	for _, entry := range entries {
		h := entry.Habit
		row := HabitRow{
			ID:            entry.ID,
			Title:         h.Title,
			Category:      h.DisplayCategory(),
			Periodicity:   h.Periodicity,
			Streak:        h.Streak,
			Rate:          h.Rate(asOf),
			LastCompleted: NeverCompleted,
		}
		if h.LastCompletion != nil {
			row.LastCompleted = h.LastCompletion.Format(habit.DateLayout)
		}
		rows = append(rows, row)
	}
	return rows
}

func wrapStoreErr(action string, err error) error {
	if errors.Is(err, habit.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", action, err)
}
