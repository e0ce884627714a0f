package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/corey/survey/internal/app"
	"github.com/corey/survey/internal/domain/survey"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Take the survey interactively",
	Long: `Walks through the survey in one terminal session. Progress is saved after
every answer, so quitting and running again resumes where you left off.

At each image:
  43512          rate all five questions (or "4 3 5 1 2")
  boredom 2      rate one question
  n / p          next / previous image (next on the last image submits)
  q              quit`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		in := bufio.NewScanner(cmd.InOrStdin())
		for {
			switch a.Controller.State().Phase {
			case survey.PhaseStart:
				done, err := promptStart(cmd, a, in)
				if err != nil || done {
					return err
				}
			case survey.PhaseSurvey:
				done, err := promptItem(cmd, a, in)
				if err != nil || done {
					return err
				}
			case survey.PhaseFinish:
				return printCurrent(a)
			}
		}
	})
}

// readLine prints prompt and returns the trimmed reply. io.EOF ends the loop.
func readLine(in *bufio.Scanner, prompt string) (string, error) {
	fmt.Print(prompt)
	if !in.Scan() {
		if err := in.Err(); err != nil {
			return "", err
		}
		fmt.Println()
		return "", io.EOF
	}
	return strings.TrimSpace(in.Text()), nil
}

// promptStart asks the unanswered demographic questions, then starts.
// done reports that input ended.
func promptStart(cmd *cobra.Command, a *app.App, in *bufio.Scanner) (done bool, err error) {
	for _, f := range survey.DemographicFields {
		for a.Controller.State().Demographics.Get(f) == "" {
			choices, err := survey.Choices(f)
			if err != nil {
				return true, err
			}
			fmt.Printf("%s%s%s\n", colorBold, f, colorReset)
			for i, c := range choices {
				fmt.Printf("  %d) %s %s(%s)%s\n", i+1, c.Label, colorGray, c.Code, colorReset)
			}
			reply, err := readLine(in, "> ")
			if err != nil {
				return true, quiet(err)
			}
			if n, err := strconv.Atoi(reply); err == nil && n >= 1 && n <= len(choices) {
				reply = choices[n-1].Label
			}
			if err := a.Controller.SetDemographic(f, reply); err != nil {
				fmt.Printf("%s%v%s\n", colorYellow, explain(err), colorReset)
			}
		}
	}

	res, err := a.Controller.Start(cmd.Context())
	if err != nil {
		return true, explain(err)
	}
	fmt.Println(formatResolution(res))
	return false, nil
}

// promptItem handles one command at the current image. done reports that
// the respondent quit.
func promptItem(cmd *cobra.Command, a *app.App, in *bufio.Scanner) (done bool, err error) {
	if err := printCurrent(a); err != nil {
		return true, err
	}
	reply, err := readLine(in, "> ")
	if err != nil {
		return true, quiet(err)
	}

	switch strings.ToLower(reply) {
	case "":
		return false, nil
	case "q", "quit", "exit":
		fmt.Printf("%sprogress saved — `survey run` to resume%s\n", colorGray, colorReset)
		return true, nil
	case "n", "next":
		if err := next(cmd, a); err != nil && !errors.Is(err, app.ErrSubmitFailed) {
			fmt.Printf("%s%v%s\n", colorYellow, err, colorReset)
		}
		return false, nil
	case "p", "prev":
		if err := a.Controller.Prev(); err != nil {
			fmt.Printf("%s%v%s\n", colorYellow, explain(err), colorReset)
		}
		return false, nil
	}

	if err := applyRatings(a, reply); err != nil {
		fmt.Printf("%s%v%s\n", colorYellow, explain(err), colorReset)
	}
	return false, nil
}

// applyRatings accepts "43512", "4 3 5 1 2" or "<field> <n>".
func applyRatings(a *app.App, reply string) error {
	fields := strings.Fields(reply)
	if len(fields) == 2 {
		if f, err := survey.ParseField(fields[0]); err == nil {
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return fmt.Errorf("%w: %q", survey.ErrInvalidRating, fields[1])
			}
			return a.Controller.Answer(f, n)
		}
	}

	digits := strings.Join(fields, "")
	if len(digits) != len(survey.Fields) {
		return fmt.Errorf("enter %d ratings, a field and rating, n, p or q", len(survey.Fields))
	}
	ratings := make([]int, len(digits))
	for i, r := range digits {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: %q", survey.ErrInvalidRating, string(r))
		}
		ratings[i] = int(r - '0')
	}
	// Validate all before setting any, so a typo does not half-apply.
	for _, n := range ratings {
		if _, err := survey.ParseLikert(n); err != nil {
			return err
		}
	}
	for i, f := range survey.Fields {
		if err := a.Controller.Answer(f, ratings[i]); err != nil {
			return err
		}
	}
	return nil
}

// quiet treats end of input as a normal exit.
func quiet(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
