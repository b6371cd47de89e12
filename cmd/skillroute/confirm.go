package main

import (
	"context"
	"errors"

	"github.com/charmbracelet/huh"

	"github.com/hylla/skillroute/internal/app"
)

// huhConfirm asks a yes/no question on the terminal. Aborting the form counts as cancel.
func huhConfirm(ctx context.Context, prompt app.Prompt) (bool, error) {
	var ok bool
	affirmative := prompt.ConfirmLabel
	if affirmative == "" {
		affirmative = "Yes"
	}
	negative := prompt.CancelLabel
	if negative == "" {
		negative = "No"
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(prompt.Title).
				Description(prompt.Message).
				Affirmative(affirmative).
				Negative(negative).
				Value(&ok),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}
