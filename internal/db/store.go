package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/habitlog/internal/habit"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store 基于 gorm 实现习惯与打卡记录的持久化
// 每次调用都直接读写数据库，不做跨调用缓存
type Store struct {
	db *gorm.DB
}

// NewStore 构造 Store
func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

// GetAllHabits 按 ID 顺序返回全部习惯及其打卡历史
func (s *Store) GetAllHabits() ([]habit.Entry, error) {
	var rows []Habit
	if err := s.db.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return s.attachHistory(rows)
}

// GetHabitsByPeriodicity 返回指定周期的习惯
func (s *Store) GetHabitsByPeriodicity(periodicity habit.Periodicity) ([]habit.Entry, error) {
	var rows []Habit
	if err := s.db.Where("periodicity = ?", string(periodicity)).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list habits by periodicity: %w", err)
	}
	return s.attachHistory(rows)
}

// GetHabit 根据 ID 获取习惯，不存在时返回 habit.ErrNotFound
func (s *Store) GetHabit(id uint) (*habit.Habit, error) {
	var row Habit
	if err := s.db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, habit.ErrNotFound
		}
		return nil, fmt.Errorf("get habit: %w", err)
	}

	history, err := s.GetCompletionHistory(id)
	if err != nil {
		return nil, err
	}

	h, err := toDomain(row)
	if err != nil {
		return nil, err
	}
	h.History = history
	return h, nil
}

// StoreHabit 新建习惯并返回分配的 ID
func (s *Store) StoreHabit(h *habit.Habit) (uint, error) {
	row := fromDomain(h)
	if err := s.db.Create(&row).Error; err != nil {
		return 0, fmt.Errorf("store habit: %w", err)
	}
	return row.ID, nil
}

// UpdateHabit 覆盖习惯的可变字段，创建日期保持不变
func (s *Store) UpdateHabit(id uint, h *habit.Habit) error {
	row := fromDomain(h)
	result := s.db.Model(&Habit{}).Where("id = ?", id).Updates(map[string]any{
		"title":                row.Title,
		"description":          row.Description,
		"periodicity":          row.Periodicity,
		"category":             row.Category,
		"streak":               row.Streak,
		"last_completion_date": row.LastCompletionDate,
	})
	if result.Error != nil {
		return fmt.Errorf("update habit: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return habit.ErrNotFound
	}
	return nil
}

// DeleteHabit 在同一事务中删除习惯及其全部打卡记录
func (s *Store) DeleteHabit(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("habit_id = ?", id).Delete(&CompletionRecord{}).Error; err != nil {
			return fmt.Errorf("delete completion records: %w", err)
		}

		result := tx.Delete(&Habit{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete habit: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return habit.ErrNotFound
		}
		return nil
	})
}

// StoreCompletionRecord 写入一条打卡记录，同一天重复写入时保持幂等
func (s *Store) StoreCompletionRecord(id uint, date time.Time) error {
	var count int64
	if err := s.db.Model(&Habit{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("find habit: %w", err)
	}
	if count == 0 {
		return habit.ErrNotFound
	}

	record := CompletionRecord{
		HabitID:        id,
		CompletionDate: habit.Day(date).Format(habit.DateLayout),
	}

	if err := s.db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "habit_id"}, {Name: "completion_date"}},
		DoNothing: true,
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("store completion record: %w", err)
	}
	return nil
}

// GetCompletionHistory 按写入顺序返回打卡日期；习惯不存在时返回空集合
func (s *Store) GetCompletionHistory(id uint) ([]time.Time, error) {
	var records []CompletionRecord
	if err := s.db.Where("habit_id = ?", id).Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list completion records: %w", err)
	}

	history := make([]time.Time, 0, len(records))
	for _, record := range records {
		day, err := habit.ParseDay(record.CompletionDate)
		if err != nil {
			return nil, fmt.Errorf("parse completion date %q: %w", record.CompletionDate, err)
		}
		history = append(history, day)
	}
	return history, nil
}

// ClearAll 清空全部习惯与打卡记录，并重置自增序列
func (s *Store) ClearAll() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&CompletionRecord{}).Error; err != nil {
			return fmt.Errorf("clear completion records: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&Habit{}).Error; err != nil {
			return fmt.Errorf("clear habits: %w", err)
		}

		// 仅当表使用 AUTOINCREMENT 时才存在 sqlite_sequence
		if tx.Migrator().HasTable("sqlite_sequence") {
			if err := tx.Exec("DELETE FROM sqlite_sequence WHERE name IN ?", []string{"habits", "completion_records"}).Error; err != nil {
				return fmt.Errorf("reset sequence: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) attachHistory(rows []Habit) ([]habit.Entry, error) {
	entries := make([]habit.Entry, 0, len(rows))
	if len(rows) == 0 {
		return entries, nil
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	var records []CompletionRecord
	if err := s.db.Where("habit_id IN ?", ids).Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list completion records: %w", err)
	}

	histories := make(map[uint][]time.Time, len(rows))
	for _, record := range records {
		day, err := habit.ParseDay(record.CompletionDate)
		if err != nil {
			return nil, fmt.Errorf("parse completion date %q: %w", record.CompletionDate, err)
		}
		histories[record.HabitID] = append(histories[record.HabitID], day)
	}

	for _, row := range rows {
		h, err := toDomain(row)
		if err != nil {
			return nil, err
		}
		h.History = histories[row.ID]
		entries = append(entries, habit.Entry{ID: row.ID, Habit: h})
	}
	return entries, nil
}

func toDomain(row Habit) (*habit.Habit, error) {
	created, err := habit.ParseDay(row.CreationDate)
	if err != nil {
		return nil, fmt.Errorf("parse creation date %q: %w", row.CreationDate, err)
	}

	h := &habit.Habit{
		Title:        row.Title,
		Description:  row.Description,
		Periodicity:  habit.Periodicity(row.Periodicity),
		CreationDate: created,
		Streak:       row.Streak,
	}
	if row.Category != nil {
		h.Category = *row.Category
	}
	if row.LastCompletionDate != nil {
		last, err := habit.ParseDay(*row.LastCompletionDate)
		if err != nil {
			return nil, fmt.Errorf("parse last completion date %q: %w", *row.LastCompletionDate, err)
		}
		h.LastCompletion = &last
	}
	return h, nil
}

func fromDomain(h *habit.Habit) Habit {
	row := Habit{
		Title:        h.Title,
		Description:  h.Description,
		Periodicity:  string(h.Periodicity),
		CreationDate: habit.Day(h.CreationDate).Format(habit.DateLayout),
		Streak:       h.Streak,
	}
	if category := strings.TrimSpace(h.Category); category != "" {
		row.Category = &category
	}
	if h.LastCompletion != nil {
		last := habit.Day(*h.LastCompletion).Format(habit.DateLayout)
		row.LastCompletionDate = &last
	}
	return row
}
