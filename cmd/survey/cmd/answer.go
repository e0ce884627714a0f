package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/corey/survey/internal/app"
	"github.com/corey/survey/internal/domain/survey"
	"github.com/spf13/cobra"
)

var answerAll string

var answerCmd = &cobra.Command{
	Use:   "answer [field] [1-5]",
	Short: "Rate the current image",
	Long: `Sets one rating of the current image, or all five with --all.

Fields: aesthetics, stability, identity, depression, boredom.

Examples:
  survey answer aesthetics 4
  survey answer --all 4,3,5,1,2`,
	Args: func(cmd *cobra.Command, args []string) error {
		if answerAll != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: runAnswer,
}

func init() {
	answerCmd.Flags().StringVar(&answerAll, "all", "", "comma-separated ratings in field order")
}

// parseAll parses "4,3,5,1,2" into one rating per field. Every value is
// range-checked here so a bad entry refuses the whole set.
func parseAll(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != len(survey.Fields) {
		return nil, fmt.Errorf("--all needs %d ratings, got %d", len(survey.Fields), len(parts))
	}
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", survey.ErrInvalidRating, p)
		}
		if _, err := survey.ParseLikert(n); err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func runAnswer(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		if answerAll != "" {
			ratings, err := parseAll(answerAll)
			if err != nil {
				return err
			}
			for i, f := range survey.Fields {
				if err := a.Controller.Answer(f, ratings[i]); err != nil {
					return explain(err)
				}
			}
			return printCurrent(a)
		}

		f, err := survey.ParseField(args[0])
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: %q", survey.ErrInvalidRating, args[1])
		}
		if err := a.Controller.Answer(f, n); err != nil {
			return explain(err)
		}
		return printCurrent(a)
	})
}
