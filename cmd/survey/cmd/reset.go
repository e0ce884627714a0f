package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/corey/survey/internal/app"
	"github.com/spf13/cobra"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the current survey session",
	Long:  "Clears demographics, the assigned group and all answers so the survey starts over. The outbox of failed submissions is kept.",
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "Skip confirmation prompt")
}

func runReset(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(paths.DB); os.IsNotExist(err) {
		fmt.Println("no session to reset")
		return nil
	}

	if !resetForce {
		fmt.Print("This will discard all answers of the current session. Continue? [y/N] ")
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("cancelled")
			return nil
		}
	}

	return withApp(func(a *app.App) error {
		if err := a.Controller.Reset(); err != nil {
			return explain(err)
		}
		a.Paths.CleanEphemeral()
		fmt.Println("session reset")
		return nil
	})
}
