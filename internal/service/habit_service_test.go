package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/habit"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedToday = time.Date(2024, 5, 29, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedToday }

func setupHabitTestDB(t *testing.T) (*db.Store, func()) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db.NewStore(gdb), func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestHabitServiceCreateAndList(t *testing.T) {
	store, cleanup := setupHabitTestDB(t)
	defer cleanup()

	svc := NewHabitService(store).WithClock(fixedClock)

	entry, err := svc.Create(HabitInput{
		Title:       "Morning Run",
		Description: "5 km",
		Periodicity: "Daily",
		Category:    "Health",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if entry.ID == 0 {
		t.Fatal("expected habit to have ID")
	}
	if entry.Habit.Streak != 0 || len(entry.Habit.History) != 0 {
		t.Fatalf("expected fresh habit, got %+v", entry.Habit)
	}
	if !entry.Habit.CreationDate.Equal(habit.Day(fixedToday)) {
		t.Fatalf("unexpected creation date: %v", entry.Habit.CreationDate)
	}

	if _, err := svc.Create(HabitInput{Title: "Journal", Periodicity: "weekly"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	habits, err := svc.List("weekly")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(habits) != 1 || habits[0].Habit.Title != "Journal" {
		t.Fatalf("unexpected weekly habits: %+v", habits)
	}

	// 不合法周期
	if _, err := svc.Create(HabitInput{Title: "Read", Periodicity: "monthly"}); !errors.Is(err, habit.ErrInvalidPeriodicity) {
		t.Fatalf("expected ErrInvalidPeriodicity, got %v", err)
	}
	if _, err := svc.List("yearly"); !errors.Is(err, habit.ErrInvalidPeriodicity) {
		t.Fatalf("expected ErrInvalidPeriodicity, got %v", err)
	}
	if _, err := svc.Create(HabitInput{Title: " ", Periodicity: "daily"}); !errors.Is(err, habit.ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
}

func TestHabitServiceCompleteOncePerDay(t *testing.T) {
	store, cleanup := setupHabitTestDB(t)
	defer cleanup()

	svc := NewHabitService(store).WithClock(fixedClock)
	entry, err := svc.Create(HabitInput{Title: "Meditate", Periodicity: "daily"})
	if err != nil {
		t.Fatalf("failed to create habit: %v", err)
	}

	completed, err := svc.Complete(entry.ID)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if completed.Streak != 1 {
		t.Fatalf("expected streak 1, got %d", completed.Streak)
	}

	again, err := svc.Complete(entry.ID)
	if !errors.Is(err, habit.ErrAlreadyCompletedToday) {
		t.Fatalf("expected ErrAlreadyCompletedToday, got %v", err)
	}
	if again == nil || again.Streak != 1 {
		t.Fatalf("expected unchanged habit to be reported, got %+v", again)
	}

	stored, err := svc.Get(entry.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if stored.Streak != 1 || len(stored.History) != 1 {
		t.Fatalf("expected history of 1 and streak 1, got %+v", stored)
	}
	if stored.LastCompletion == nil || !stored.LastCompletion.Equal(habit.Day(fixedToday)) {
		t.Fatalf("unexpected last completion: %v", stored.LastCompletion)
	}

	if _, err := svc.Complete(404); !errors.Is(err, habit.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHabitServiceCompleteExtendsStreak(t *testing.T) {
	store, cleanup := setupHabitTestDB(t)
	defer cleanup()

	day := fixedToday
	svc := NewHabitService(store).WithClock(func() time.Time { return day })
	entry, err := svc.Create(HabitInput{Title: "Drink Water", Periodicity: "daily"})
	if err != nil {
		t.Fatalf("failed to create habit: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.Complete(entry.ID); err != nil {
			t.Fatalf("Complete returned error: %v", err)
		}
		day = day.AddDate(0, 0, 1)
	}

	stored, err := svc.Get(entry.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if stored.Streak != 3 {
		t.Fatalf("expected streak 3, got %d", stored.Streak)
	}
	if got := habit.ComputeStreak(stored.History, stored.Periodicity); got != stored.Streak {
		t.Fatalf("cached streak %d diverged from history %d", stored.Streak, got)
	}
}

func TestHabitServiceEdit(t *testing.T) {
	store, cleanup := setupHabitTestDB(t)
	defer cleanup()

	svc := NewHabitService(store).WithClock(fixedClock)
	seeded, err := svc.SeedDefaults()
	if err != nil || seeded != 5 {
		t.Fatalf("SeedDefaults returned %d, %v", seeded, err)
	}

	title := "Weekly Shopping"
	daily := "daily"
	empty := ""
	updated, err := svc.Edit(4, HabitChanges{Title: &title, Periodicity: &daily, Description: &empty})
	if err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}
	if updated.Title != "Weekly Shopping" || updated.Periodicity != habit.Daily {
		t.Fatalf("unexpected habit after edit: %+v", updated)
	}
	if updated.Category != "Chores" {
		t.Fatalf("expected category to stay Chores, got %q", updated.Category)
	}
	// 默认保持原 streak，不按新周期重算
	if updated.Streak != 4 || len(updated.History) != 4 {
		t.Fatalf("expected streak/history untouched, got streak=%d history=%d", updated.Streak, len(updated.History))
	}

	bad := "fortnightly"
	if _, err := svc.Edit(4, HabitChanges{Periodicity: &bad}); !errors.Is(err, habit.ErrInvalidPeriodicity) {
		t.Fatalf("expected ErrInvalidPeriodicity, got %v", err)
	}
	if _, err := svc.Edit(99, HabitChanges{Title: &title}); !errors.Is(err, habit.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHabitServiceEditRecomputePolicy(t *testing.T) {
	store, cleanup := setupHabitTestDB(t)
	defer cleanup()

	svc := NewHabitService(store).WithClock(fixedClock).WithRecomputeOnPeriodicityChange(true)
	if _, err := svc.SeedDefaults(); err != nil {
		t.Fatalf("SeedDefaults returned error: %v", err)
	}

	daily := "daily"
	updated, err := svc.Edit(5, HabitChanges{Periodicity: &daily})
	if err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}
	if updated.Streak != 1 {
		t.Fatalf("expected weekly history to give daily streak 1, got %d", updated.Streak)
	}
}

func TestHabitServiceDelete(t *testing.T) {
	store, cleanup := setupHabitTestDB(t)
	defer cleanup()

	svc := NewHabitService(store).WithClock(fixedClock)
	if _, err := svc.SeedDefaults(); err != nil {
		t.Fatalf("SeedDefaults returned error: %v", err)
	}

	if err := svc.Delete(1); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	habits, err := svc.List("")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(habits) != 4 {
		t.Fatalf("expected 4 habits after delete, got %d", len(habits))
	}
	if _, err := svc.Get(1); !errors.Is(err, habit.ErrNotFound) {
		t.Fatalf("expected deleted habit to be gone, got %v", err)
	}

	history, err := store.GetCompletionHistory(1)
	if err != nil {
		t.Fatalf("GetCompletionHistory returned error: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected completion records to be removed, got %d", len(history))
	}

	if err := svc.Delete(1); !errors.Is(err, habit.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHabitServiceSeedDefaults(t *testing.T) {
	store, cleanup := setupHabitTestDB(t)
	defer cleanup()

	svc := NewHabitService(store).WithClock(fixedClock)
	seeded, err := svc.SeedDefaults()
	if err != nil {
		t.Fatalf("SeedDefaults returned error: %v", err)
	}
	if seeded != 5 {
		t.Fatalf("expected 5 seeded habits, got %d", seeded)
	}

	rows, err := svc.Listing("")
	if err != nil {
		t.Fatalf("Listing returned error: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}

	yesterday := habit.Day(fixedToday).AddDate(0, 0, -1).Format(habit.DateLayout)
	if rows[0].Title != "Drink Water" || rows[0].Streak != 28 || rows[0].LastCompleted != yesterday {
		t.Fatalf("unexpected daily seed row: %+v", rows[0])
	}
	if rows[3].Streak != 4 || rows[3].Periodicity != habit.Weekly {
		t.Fatalf("unexpected weekly seed row: %+v", rows[3])
	}

	// 已有数据时不再写入
	again, err := svc.SeedDefaults()
	if err != nil || again != 0 {
		t.Fatalf("expected second seed to be a no-op, got %d, %v", again, err)
	}
}

func TestHabitServicePendingAndListing(t *testing.T) {
	store, cleanup := setupHabitTestDB(t)
	defer cleanup()

	svc := NewHabitService(store).WithClock(fixedClock)
	if _, err := svc.SeedDefaults(); err != nil {
		t.Fatalf("SeedDefaults returned error: %v", err)
	}
	fresh, err := svc.Create(HabitInput{Title: "Stretch", Periodicity: "daily"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Complete(1); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	pending, err := svc.Pending()
	if err != nil {
		t.Fatalf("Pending returned error: %v", err)
	}

	ids := make([]uint, 0, len(pending))
	for _, entry := range pending {
		ids = append(ids, entry.ID)
	}
	// 1 今天已完成；周习惯上次完成正好 7 天前，仍待完成
	expected := []uint{2, 3, 4, 5, fresh.ID}
	if len(ids) != len(expected) {
		t.Fatalf("expected pending %v, got %v", expected, ids)
	}
	for i := range expected {
		if ids[i] != expected[i] {
			t.Fatalf("expected pending %v, got %v", expected, ids)
		}
	}

	rows, err := svc.Listing("daily")
	if err != nil {
		t.Fatalf("Listing returned error: %v", err)
	}
	last := rows[len(rows)-1]
	if last.Title != "Stretch" || last.LastCompleted != NeverCompleted || last.Category != habit.Uncategorized {
		t.Fatalf("unexpected row for fresh habit: %+v", last)
	}
	if last.Rate != (habit.Rate{}) {
		t.Fatalf("expected zero rate for empty history, got %+v", last.Rate)
	}
}

func TestHabitServiceClear(t *testing.T) {
	store, cleanup := setupHabitTestDB(t)
	defer cleanup()

	svc := NewHabitService(store).WithClock(fixedClock)
	if _, err := svc.SeedDefaults(); err != nil {
		t.Fatalf("SeedDefaults returned error: %v", err)
	}
	if err := svc.Clear(); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}

	entry, err := svc.Create(HabitInput{Title: "New Habit", Periodicity: "daily"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if entry.ID != 1 {
		t.Fatalf("expected ids to restart at 1, got %d", entry.ID)
	}
}
