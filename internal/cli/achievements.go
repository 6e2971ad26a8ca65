package cli

import (
	"fmt"

	"github.com/julianstephens/stronghabit/internal/achievements"
)

type AchievementsCmd struct {
	All bool `help:"Show locked achievements too."`
}

func (c *AchievementsCmd) Run(ctx *Context) error {
	st, err := ctx.Habits.Stats(ctx.Ctx)
	if err != nil {
		return err
	}

	catalogue := achievements.DefaultCatalogue()
	counters := achievements.CountersFromStats(st)
	unlocked := achievements.Unlocked(catalogue, counters)

	ctx.println(titleStyle.Render(fmt.Sprintf("Achievements (%d/%d)", len(unlocked), len(catalogue))))
	for _, d := range unlocked {
		ctx.println(successStyle.Render("🏆 ") + nameStyle.Render(d.Title))
	}

	locked := achievements.Next(catalogue, counters, 3)
	if c.All {
		locked = achievements.Next(catalogue, counters, -1)
	}
	if len(locked) == 0 {
		return nil
	}

	ctx.println()
	ctx.println(mutedStyle.Render("Up next"))
	for _, d := range locked {
		ctx.printf("   %s %s %s\n",
			progressBar(achievements.Progress(d, counters), 10),
			nameStyle.Render(d.Title),
			mutedStyle.Render(fmt.Sprintf("%d/%d %s", counters[d.Metric], d.Threshold, d.Metric)))
	}
	return nil
}
