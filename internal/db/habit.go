package db

import (
	"time"
)

// Habit 定义了习惯表
// 日期统一存为 ISO-8601 (YYYY-MM-DD) 字符串；Category 为 NULL 表示未分类
// Streak/LastCompletionDate 是打卡历史的缓存，由 service 层负责维护
type Habit struct {
	ID                 uint   `gorm:"primaryKey"`
	Title              string `gorm:"not null"`
	Description        string
	Periodicity        string `gorm:"index;not null"`
	CreationDate       string `gorm:"not null"`
	Streak             int
	LastCompletionDate *string
	Category           *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CompletionRecord 记录一次打卡
// habit_id + completion_date 采用唯一索引，保证同一天最多一条
type CompletionRecord struct {
	ID             uint   `gorm:"primaryKey"`
	HabitID        uint   `gorm:"not null;index;uniqueIndex:idx_completion_unique"`
	Habit          Habit  `gorm:"constraint:OnDelete:CASCADE"`
	CompletionDate string `gorm:"not null;uniqueIndex:idx_completion_unique"`
	CreatedAt      time.Time
}

// TableName 固定表名，确保唯一索引作用到 habit_id + completion_date
func (CompletionRecord) TableName() string {
	return "completion_records"
}
