package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	fsw "github.com/corey/survey/internal/adapters/fsnotify"
	"github.com/corey/survey/internal/app"
	"github.com/corey/survey/internal/domain/status"
	"github.com/corey/survey/internal/domain/survey"
	"github.com/spf13/cobra"
)

var statusFollow bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show survey progress",
	Long:  "Reads the status snapshot written after every change. Does not open the session database, so it works while `survey run` is active elsewhere.",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusFollow, "follow", "f", false, "Re-render whenever progress changes")
}

func readStatus() (*status.StatusData, error) {
	sd, err := status.Read(paths.Status)
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}
	if sd == nil {
		sd = status.Generate(survey.New(), cfg.Layout())
	}
	return sd, nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	if !statusFollow {
		sd, err := readStatus()
		if err != nil {
			return err
		}
		fmt.Print(formatStatus(sd))
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return followStatus(ctx)
}

// followStatus re-renders the status until ctx is done.
func followStatus(ctx context.Context) error {
	w, err := fsw.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	return app.FollowStatus(ctx, w, paths, logger, func(sd *status.StatusData) {
		if sd == nil {
			sd = status.Generate(survey.New(), cfg.Layout())
		}
		fmt.Print(formatStatus(sd))
	})
}
