package cmd

import (
	"fmt"

	"github.com/corey/survey/internal/app"
	"github.com/corey/survey/internal/domain/survey"
	"github.com/spf13/cobra"
)

var demoFlags = map[survey.DemographicField]*string{
	survey.FieldGender: new(string),
	survey.FieldAge:    new(string),
	survey.FieldJob:    new(string),
}

var demographicsCmd = &cobra.Command{
	Use:   "demographics",
	Short: "Answer the background questions",
	Long:  "Sets gender, age group and occupation. Values may be given as the Korean label or the short code; only allowed before the survey starts.",
	RunE:  runDemographics,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Assign a group and show the first image",
	Long:  "Optionally sets demographics from flags, then asks the collection endpoint for a group (random if unavailable) and begins the survey.",
	RunE:  runStart,
}

func init() {
	for _, c := range []*cobra.Command{demographicsCmd, startCmd} {
		for _, f := range survey.DemographicFields {
			c.Flags().StringVar(demoFlags[f], string(f), "", formatChoices(f))
		}
	}
}

// applyDemographicFlags sets every demographic flag the user passed.
func applyDemographicFlags(cmd *cobra.Command, a *app.App) (int, error) {
	n := 0
	for _, f := range survey.DemographicFields {
		if !cmd.Flags().Changed(string(f)) {
			continue
		}
		if err := a.Controller.SetDemographic(f, *demoFlags[f]); err != nil {
			return n, explain(err)
		}
		n++
	}
	return n, nil
}

func printDemographics(d survey.Demographics) {
	show := func(v string) string {
		if v == "" {
			return colorGray + "(unanswered)" + colorReset
		}
		return v
	}
	fmt.Printf("  gender: %s\n  age:    %s\n  job:    %s\n", show(d.Gender), show(d.Age), show(d.Job))
}

func runDemographics(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		if _, err := applyDemographicFlags(cmd, a); err != nil {
			return err
		}
		s := a.Controller.State()
		fmt.Printf("%s⚡ demographics%s\n", colorBold, colorReset)
		printDemographics(s.Demographics)
		if s.Phase == survey.PhaseStart && s.Demographics.Complete() {
			fmt.Printf("%sready — run `survey start`%s\n", colorGray, colorReset)
		}
		return nil
	})
}

func runStart(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		if _, err := applyDemographicFlags(cmd, a); err != nil {
			return err
		}
		res, err := a.Controller.Start(cmd.Context())
		if err != nil {
			return explain(err)
		}
		fmt.Println(formatResolution(res))
		return printCurrent(a)
	})
}

// printCurrent shows the current image, or the phase when not surveying.
func printCurrent(a *app.App) error {
	it, ok := a.Controller.Current()
	if !ok {
		switch a.Controller.State().Phase {
		case survey.PhaseFinish:
			fmt.Printf("%s✓ survey complete, thank you%s\n", colorGreen, colorReset)
		default:
			fmt.Println("survey not started — run `survey start --gender .. --age .. --job ..`")
		}
		return nil
	}
	fmt.Print(formatItem(it, cfg.AssetLocator()))
	return nil
}
