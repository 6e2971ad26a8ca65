package cli

import (
	"strings"

	"github.com/julianstephens/stronghabit/internal/utils"
)

type SettingsCmd struct {
	Timezone      *string `help:"UTC offset used for calendar days (e.g. +05:30), or 'local' for the system zone."`
	Notifications *bool   `help:"Enable or disable reminders."`
}

func (c *SettingsCmd) Run(ctx *Context) error {
	if c.Timezone != nil {
		var offset *int
		if v := strings.TrimSpace(*c.Timezone); !strings.EqualFold(v, "local") {
			minutes, err := ParseOffset(v)
			if err != nil {
				return err
			}
			offset = &minutes
		}
		if err := ctx.Settings.SetTimezoneOffset(ctx.Ctx, offset); err != nil {
			return err
		}
	}
	if c.Notifications != nil {
		if err := ctx.Settings.SetNotificationsEnabled(ctx.Ctx, *c.Notifications); err != nil {
			return err
		}
	}
	if c.Timezone != nil || c.Notifications != nil {
		ctx.println(success("Settings updated"))
	}

	s, err := ctx.Settings.Get(ctx.Ctx)
	if err != nil {
		return err
	}
	zone := "system local"
	if s.TimezoneOffsetMinutes != nil {
		zone = utils.FormatOffset(*s.TimezoneOffsetMinutes)
	}

	ctx.println(titleStyle.Render("Current Settings"))
	ctx.println(field("Time zone", zone))
	ctx.println(field("Today", ctx.today()))
	ctx.println(field("Notifications", s.NotificationsEnabled))
	ctx.println(field("Storage", ctx.KV.GetConfigPath()))
	ctx.println(field("Backups", ctx.Backups.GetBackupDir()))
	return nil
}
