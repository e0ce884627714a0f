package cmd

import (
	"errors"
	"fmt"

	"github.com/corey/survey/internal/app"
	"github.com/spf13/cobra"
)

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Go to the next image, or submit at the last one",
	RunE:  runNext,
}

var prevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Go back one image",
	RunE:  runPrev,
}

func runNext(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		return next(cmd, a)
	})
}

// next advances and reports the outcome; shared with `survey run`.
func next(cmd *cobra.Command, a *app.App) error {
	res, err := a.Controller.Next(cmd.Context())
	if errors.Is(err, app.ErrSubmitFailed) {
		// The notifier has already told the respondent; answers are kept.
		fmt.Printf("%sanswers kept — run `survey next` again to retry%s\n", colorGray, colorReset)
		return err
	}
	if err != nil {
		return explain(err)
	}
	if res.Submitted {
		fmt.Printf("%s✓ submitted%s\n", colorGreen, colorReset)
	}
	return printCurrent(a)
}

func runPrev(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		if err := a.Controller.Prev(); err != nil {
			return explain(err)
		}
		return printCurrent(a)
	})
}
