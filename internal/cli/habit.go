package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/julianstephens/stronghabit/internal/calendar"
	"github.com/julianstephens/stronghabit/internal/habits"
	"github.com/julianstephens/stronghabit/internal/models"
)

type HabitCmd struct {
	Add     HabitAddCmd     `cmd:"" help:"Add a new habit."`
	List    HabitListCmd    `cmd:"" help:"List habits." default:"1"`
	Edit    HabitEditCmd    `cmd:"" help:"Edit an existing habit."`
	Delete  HabitDeleteCmd  `cmd:"" help:"Delete a habit and its history."`
	Done    HabitDoneCmd    `cmd:"" help:"Mark a habit as done for a day."`
	Undo    HabitUndoCmd    `cmd:"" help:"Mark a habit as not done for a day."`
	Cleanup HabitCleanupCmd `cmd:"" help:"Remove data older than the retention window."`
	Stats   HabitStatsCmd   `cmd:"" help:"Show habit statistics."`
}

type HabitAddCmd struct {
	Name        string `arg:"" help:"Habit name."`
	Description string `help:"Optional description."`
	Frequency   string `help:"How often the habit repeats." enum:"daily,weekly,monthly" default:"daily"`
	Days        string `help:"Weekdays for weekly habits (e.g. mon,wed,fri)."`
	Color       string `help:"Display color (e.g. #4CAF50)."`
	Reminder    string `help:"Daily reminder time in HH:MM."`
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	days, err := ParseWeekdays(c.Days)
	if err != nil {
		return err
	}

	habit, err := ctx.Habits.AddHabit(ctx.Ctx, models.HabitInput{
		Name:            c.Name,
		Description:     c.Description,
		Frequency:       models.Frequency(c.Frequency),
		SelectedDays:    days,
		Color:           c.Color,
		ReminderEnabled: c.Reminder != "",
		ReminderTime:    c.Reminder,
	})
	if err != nil {
		return err
	}

	ctx.println(success("Added habit: %s", habit.Name))
	ctx.println(mutedStyle.Render("  id " + habit.ID))
	if habit.ReminderEnabled && habit.NotificationID == "" {
		ctx.println(warning("Reminder saved but not scheduled (is stronghabit-tray running?)"))
	}
	return nil
}

type HabitListCmd struct {
	JSON bool `help:"Print habits as JSON." name:"json"`
}

func (c *HabitListCmd) Run(ctx *Context) error {
	all, err := ctx.Habits.GetHabits(ctx.Ctx)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(all)
	}

	if len(all) == 0 {
		ctx.println("No habits found.")
		return nil
	}

	today := ctx.today()
	ctx.println(titleStyle.Render(fmt.Sprintf("Habits for %s", today)))
	ctx.println()
	for _, h := range all {
		status := "[ ]"
		if completedOn(h, today) {
			status = successStyle.Render("[x]")
		}
		line := fmt.Sprintf("%s %s  %s", status, nameStyle.Render(h.Name), mutedStyle.Render(formatFrequency(h)))
		if h.Streak > 0 {
			line += "  " + streakStyle.Render(fmt.Sprintf("🔥 %d", h.Streak))
		}
		if h.ReminderEnabled {
			line += "  " + mutedStyle.Render("⏰ "+h.ReminderTime)
		}
		ctx.println(line)
	}
	return nil
}

type HabitEditCmd struct {
	Habit       string  `arg:"" help:"Habit id or name."`
	Name        *string `help:"New name."`
	Description *string `help:"New description."`
	Frequency   *string `help:"New frequency (daily, weekly or monthly)."`
	Days        *string `help:"New weekdays for weekly habits."`
	Color       *string `help:"New display color."`
	Reminder    *string `help:"New reminder time in HH:MM."`
	NoReminder  bool    `help:"Turn the reminder off."`
}

func (c *HabitEditCmd) Run(ctx *Context) error {
	habit, err := ctx.resolveHabit(c.Habit)
	if err != nil {
		return err
	}

	if c.Name != nil {
		habit.Name = *c.Name
	}
	if c.Description != nil {
		habit.Description = *c.Description
	}
	if c.Frequency != nil {
		habit.Frequency = models.Frequency(*c.Frequency)
	}
	if c.Days != nil {
		days, err := ParseWeekdays(*c.Days)
		if err != nil {
			return err
		}
		habit.SelectedDays = days
	}
	if c.Color != nil {
		habit.Color = *c.Color
	}
	if c.Reminder != nil {
		habit.ReminderEnabled = true
		habit.ReminderTime = *c.Reminder
	}
	if c.NoReminder {
		habit.ReminderEnabled = false
		habit.ReminderTime = ""
	}

	if err := ctx.Habits.UpdateHabit(ctx.Ctx, habit); err != nil {
		return err
	}
	ctx.println(success("Updated habit: %s", habit.Name))
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	Yes   bool   `short:"y" help:"Skip confirmation."`
}

func (c *HabitDeleteCmd) Run(ctx *Context) error {
	habit, err := ctx.resolveHabit(c.Habit)
	if err != nil {
		return err
	}

	ok, err := ctx.confirm(c.Yes, fmt.Sprintf("Delete %q?", habit.Name), "Its completion history will be lost.")
	if err != nil || !ok {
		return err
	}

	if err := ctx.Habits.DeleteHabit(ctx.Ctx, habit.ID); err != nil {
		return err
	}
	ctx.println(success("Deleted habit: %s", habit.Name))
	return nil
}

type HabitDoneCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	Date  string `help:"Date in YYYY-MM-DD format (default: today)."`
}

func (c *HabitDoneCmd) Run(ctx *Context) error {
	return setCompletion(ctx, c.Habit, c.Date, true)
}

type HabitUndoCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	Date  string `help:"Date in YYYY-MM-DD format (default: today)."`
}

func (c *HabitUndoCmd) Run(ctx *Context) error {
	return setCompletion(ctx, c.Habit, c.Date, false)
}

func setCompletion(ctx *Context, ref, date string, completed bool) error {
	habit, err := ctx.resolveHabit(ref)
	if err != nil {
		return err
	}
	if date == "" {
		date = ctx.today().String()
	}

	if err := ctx.Habits.UpdateHabitCompletion(ctx.Ctx, habit.ID, date, completed); err != nil {
		return err
	}

	updated, err := ctx.Habits.GetHabit(ctx.Ctx, habit.ID)
	if err != nil {
		return err
	}
	if completed {
		ctx.println(success("Marked %q done for %s", habit.Name, date))
	} else {
		ctx.println(success("Marked %q not done for %s", habit.Name, date))
	}
	ctx.println(field("Streak", streakStyle.Render(fmt.Sprintf("%d", updated.Streak))))
	return nil
}

type HabitCleanupCmd struct {
	Yes bool `short:"y" help:"Skip confirmation."`
}

func (c *HabitCleanupCmd) Run(ctx *Context) error {
	ok, err := ctx.confirm(c.Yes, "Remove old habit data?", "Habits created and log entries recorded more than a year ago will be removed.")
	if err != nil || !ok {
		return err
	}

	if err := ctx.Habits.CleanupOldData(ctx.Ctx); err != nil {
		return err
	}
	ctx.println(success("Old data removed"))
	return nil
}

type HabitStatsCmd struct{}

func (c *HabitStatsCmd) Run(ctx *Context) error {
	st, err := ctx.Habits.Stats(ctx.Ctx)
	if err != nil {
		return err
	}
	printStats(ctx, st)
	return nil
}

func printStats(ctx *Context, st habits.Stats) {
	ctx.println(titleStyle.Render("Statistics"))
	ctx.println(field("Habits", st.TotalHabits))
	ctx.println(field("Completions", st.TotalCompletions))
	ctx.println(field("Best current streak", st.BestCurrentStreak))
	ctx.println(field("Longest streak", st.LongestStreak))
	ctx.println(field("Perfect days", st.PerfectDays))
	ctx.println(field("30-day completion", fmt.Sprintf("%s %.0f%%", progressBar(st.CompletionRate, 20), st.CompletionRate*100)))
}

func completedOn(h models.Habit, day calendar.Day) bool {
	for _, l := range h.CompletionLogs {
		d, err := l.Day()
		if err == nil && d == day {
			return l.Completed
		}
	}
	return false
}

func formatFrequency(h models.Habit) string {
	if h.Frequency != models.FrequencyWeekly || len(h.SelectedDays) == 0 {
		return string(h.Frequency)
	}
	days := make([]string, 0, len(h.SelectedDays))
	for _, d := range h.SelectedDays {
		name := string(d)
		if len(name) > 3 {
			name = name[:3]
		}
		days = append(days, name)
	}
	return "weekly on " + strings.Join(days, ",")
}
