package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/habitlog/internal/config"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/habit"
	"github.com/habitlog/internal/service"
	"github.com/habitlog/internal/view"
)

type cli struct {
	habits    *service.HabitService
	analytics *service.AnalyticsService
	stdout    io.Writer
	stderr    io.Writer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	global := flag.NewFlagSet("habitctl", flag.ExitOnError)
	dbPath := global.String("db", cfg.DatabasePath, "path to the sqlite database")
	global.Usage = func() { printUsage(os.Stderr) }
	global.Parse(os.Args[1:])

	gdb, err := db.Open(*dbPath, db.ParseLogLevel(cfg.DBLogLevel))
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	store := db.NewStore(gdb)
	app := &cli{
		habits:    service.NewHabitService(store).WithRecomputeOnPeriodicityChange(cfg.RecomputeOnPeriodicityChange),
		analytics: service.NewAnalyticsService(store),
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
	os.Exit(app.run(global.Args()))
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: habitctl [-db path] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  list [-periodicity daily|weekly]   show all habits")
	fmt.Fprintln(w, "  pending                            show habits not completed this period")
	fmt.Fprintln(w, "  create -title T -periodicity P     create a habit")
	fmt.Fprintln(w, "  complete <id>                      check off a habit for today")
	fmt.Fprintln(w, "  edit <id> [-title -description -periodicity -category]")
	fmt.Fprintln(w, "  delete <id> -yes                   delete a habit and its history")
	fmt.Fprintln(w, "  streak <id>                        show cached and recomputed streak")
	fmt.Fprintln(w, "  analytics                          print the analytics report")
	fmt.Fprintln(w, "  seed                               insert predefined habits into an empty database")
	fmt.Fprintln(w, "  clear -yes                         delete every habit and reset ids")
}

func (a *cli) run(args []string) int {
	if len(args) == 0 {
		printUsage(a.stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "list":
		err = a.cmdList(args[1:])
	case "pending":
		err = a.cmdPending()
	case "create":
		err = a.cmdCreate(args[1:])
	case "complete":
		err = a.cmdComplete(args[1:])
	case "edit":
		err = a.cmdEdit(args[1:])
	case "delete":
		err = a.cmdDelete(args[1:])
	case "streak":
		err = a.cmdStreak(args[1:])
	case "analytics":
		err = a.cmdAnalytics()
	case "seed":
		err = a.cmdSeed()
	case "clear":
		err = a.cmdClear(args[1:])
	case "help", "-h", "--help":
		printUsage(a.stdout)
		return 0
	default:
		fmt.Fprintf(a.stderr, "Unknown command: %s\n\n", args[0])
		printUsage(a.stderr)
		return 2
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (a *cli) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *cli) cmdList(args []string) error {
	fs := a.newFlagSet("list")
	periodicity := fs.String("periodicity", "", "only show daily or weekly habits")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rows, err := a.habits.Listing(*periodicity)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(a.stdout, "No habits found.")
		return nil
	}
	return view.RenderTable(a.stdout, rows)
}

func (a *cli) cmdPending() error {
	entries, err := a.habits.Pending()
	if err != nil {
		return err
	}
	return view.RenderPending(a.stdout, entries)
}

func (a *cli) cmdCreate(args []string) error {
	fs := a.newFlagSet("create")
	title := fs.String("title", "", "habit title")
	description := fs.String("description", "", "habit description")
	periodicity := fs.String("periodicity", "", "daily or weekly")
	category := fs.String("category", "", "optional category")
	if err := fs.Parse(args); err != nil {
		return err
	}

	entry, err := a.habits.Create(service.HabitInput{
		Title:       *title,
		Description: *description,
		Periodicity: *periodicity,
		Category:    *category,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Habit '%s' created with ID %d.\n", entry.Habit.Title, entry.ID)
	return nil
}

func (a *cli) cmdComplete(args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	h, err := a.habits.Complete(id)
	if errors.Is(err, habit.ErrAlreadyCompletedToday) {
		fmt.Fprintf(a.stdout, "Habit '%s' was already completed today.\n", h.Title)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Habit '%s' completed. Current streak: %d %s.\n", h.Title, h.Streak, h.Periodicity.Unit())
	return nil
}

func (a *cli) cmdEdit(args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	fs := a.newFlagSet("edit")
	title := fs.String("title", "", "new title")
	description := fs.String("description", "", "new description")
	periodicity := fs.String("periodicity", "", "new periodicity")
	category := fs.String("category", "", "new category")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	// 只替换显式传入的字段
	var changes service.HabitChanges
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			changes.Title = title
		case "description":
			changes.Description = description
		case "periodicity":
			changes.Periodicity = periodicity
		case "category":
			changes.Category = category
		}
	})

	h, err := a.habits.Edit(id, changes)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Habit %d updated: '%s' (%s, %s).\n", id, h.Title, h.Periodicity, h.DisplayCategory())
	return nil
}

func (a *cli) cmdDelete(args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	fs := a.newFlagSet("delete")
	yes := fs.Bool("yes", false, "confirm deletion")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if !*yes {
		fmt.Fprintln(a.stdout, "Deletion cancelled. Pass -yes to confirm.")
		return nil
	}

	if err := a.habits.Delete(id); err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Habit %d deleted.\n", id)
	return nil
}

func (a *cli) cmdStreak(args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	h, recomputed, err := a.analytics.HabitStreak(id)
	if err != nil {
		return err
	}

	unit := h.Periodicity.Unit()
	fmt.Fprintf(a.stdout, "Habit '%s' (%s)\n", h.Title, h.Periodicity)
	fmt.Fprintf(a.stdout, "  Cached streak:     %d %s\n", h.Streak, unit)
	fmt.Fprintf(a.stdout, "  Recomputed streak: %d %s\n", recomputed, unit)
	return nil
}

func (a *cli) cmdAnalytics() error {
	report, err := a.analytics.Report()
	if err != nil {
		return err
	}
	return view.RenderReport(a.stdout, report)
}

func (a *cli) cmdSeed() error {
	seeded, err := a.habits.SeedDefaults()
	if err != nil {
		return err
	}
	if seeded == 0 {
		fmt.Fprintln(a.stdout, "Database already contains habits, nothing seeded.")
		return nil
	}
	fmt.Fprintf(a.stdout, "Seeded %d predefined habits.\n", seeded)
	return nil
}

func (a *cli) cmdClear(args []string) error {
	fs := a.newFlagSet("clear")
	yes := fs.Bool("yes", false, "confirm clearing all data")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		fmt.Fprintln(a.stdout, "Clear cancelled. Pass -yes to confirm.")
		return nil
	}

	if err := a.habits.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "All habits and completion records deleted.")
	return nil
}

func parseID(args []string) (uint, error) {
	if len(args) == 0 {
		return 0, errors.New("habit id is required")
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid habit id %q", args[0])
	}
	return uint(id), nil
}
