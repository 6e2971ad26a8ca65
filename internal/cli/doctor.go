package cli

import (
	"errors"
	"fmt"

	"github.com/julianstephens/stronghabit/internal/notifier"
)

const doctorNotice = "stronghabit can reach the tray app"

type DoctorCmd struct{}

func (c *DoctorCmd) Run(ctx *Context) error {
	ctx.println("Running diagnostics...")
	ctx.println()

	failed := 0
	report := func(check, detail string, err error) {
		if err != nil {
			failed++
			ctx.println(warningStyle.Render(fmt.Sprintf("❌ %s: FAIL", check)))
			ctx.println(mutedStyle.Render(fmt.Sprintf("   Error: %v", err)))
			return
		}
		ctx.println(successStyle.Render(fmt.Sprintf("✓ %s: OK", check)) + " " + mutedStyle.Render(detail))
	}

	// Check 1: habit document readable
	doc, err := ctx.Habits.GetDocument(ctx.Ctx)
	report("Storage", fmt.Sprintf("%d habits in %s", len(doc.Habits), ctx.KV.GetConfigPath()), err)

	// Check 2: backup directory usable
	report("Backup directory", ctx.Backups.GetBackupDir(), ctx.Backups.InitializeBackupSystem(ctx.Ctx))

	// Check 3: S3 secret in the keyring, only with a bucket configured
	if s3 := ctx.Config.Cloud.S3; s3.Configured() {
		secret, err := ctx.LookupSecret(s3.AccessKeyID)
		if err == nil && secret == "" {
			err = errors.New("secret is empty")
		}
		if err != nil {
			err = fmt.Errorf("%w (run 'stronghabit cloud set-secret')", err)
		}
		report("S3 secret", "stored for "+s3.AccessKeyID, err)
	} else {
		ctx.println(mutedStyle.Render("⊘ S3 secret: SKIPPED (no bucket configured)"))
	}

	// Check 4: tray app receives a test notification (warning only when absent)
	switch err := ctx.Tray.Notify(ctx.Ctx, doctorNotice); {
	case errors.Is(err, notifier.ErrTrayNotRunning):
		ctx.println(warningStyle.Render("⚠ Tray app: WARNING"))
		ctx.println(mutedStyle.Render("   not running, reminders will not fire"))
	default:
		report("Tray app", "test notification sent", err)
	}

	ctx.println()
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	ctx.println(success("All checks passed"))
	return nil
}
