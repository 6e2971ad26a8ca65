package cli

type InitCmd struct{}

func (c *InitCmd) Run(ctx *Context) error {
	if err := ctx.KV.Init(); err != nil {
		return err
	}
	if err := ctx.Habits.Init(ctx.Ctx); err != nil {
		return err
	}
	if err := ctx.Backups.InitializeBackupSystem(ctx.Ctx); err != nil {
		return err
	}

	ctx.println(success("Initialized storage at %s", ctx.KV.GetConfigPath()))
	ctx.println(field("Backups", ctx.Backups.GetBackupDir()))
	return nil
}
