package platform

import (
	"context"
	"errors"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/stronghabit/internal/constants"
)

// HuhFilePicker prompts for a backup file in the terminal.
type HuhFilePicker struct {
	dir    string
	prompt func(ctx context.Context, dir string) (string, error)
}

func NewHuhFilePicker(startDir string) *HuhFilePicker {
	return &HuhFilePicker{dir: startDir, prompt: runFilePicker}
}

// PickFile returns ok=false when the user aborts or picks nothing.
func (p *HuhFilePicker) PickFile(ctx context.Context) (string, bool, error) {
	path, err := p.prompt(ctx, p.dir)
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", false, nil
		}
		return "", false, err
	}
	if path == "" {
		return "", false, nil
	}
	return path, true, nil
}

func runFilePicker(ctx context.Context, dir string) (string, error) {
	var path string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewFilePicker().
				Title("Select a backup file").
				CurrentDirectory(dir).
				AllowedTypes([]string{constants.BackupFileSuffix}).
				FileAllowed(true).
				DirAllowed(false).
				Value(&path),
		),
	).WithTheme(huh.ThemeDracula())
	if err := form.RunWithContext(ctx); err != nil {
		return "", err
	}
	return path, nil
}

// Confirmer asks yes/no questions before destructive actions.
type Confirmer interface {
	Confirm(ctx context.Context, title, description string) (bool, error)
}

// HuhConfirmer prompts in the terminal.
type HuhConfirmer struct{}

func (HuhConfirmer) Confirm(ctx context.Context, title, description string) (bool, error) {
	confirmed := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&confirmed),
		),
	).WithTheme(huh.ThemeDracula())
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return confirmed, nil
}

// AlwaysConfirm answers yes without prompting, for --yes flags.
type AlwaysConfirm struct{}

func (AlwaysConfirm) Confirm(context.Context, string, string) (bool, error) { return true, nil }

// PromptSecret reads a value without echoing it.
func PromptSecret(ctx context.Context, title string) (string, error) {
	var secret string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				EchoMode(huh.EchoModePassword).
				Value(&secret).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("value cannot be empty")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
	if err := form.RunWithContext(ctx); err != nil {
		return "", err
	}
	return secret, nil
}
