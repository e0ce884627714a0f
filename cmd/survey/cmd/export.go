package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/corey/survey/internal/app"
	"github.com/corey/survey/internal/ports"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var exportOutbox bool

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print collected submissions as JSON",
	Long:  "Prints the submissions stored by `survey serve` (bbolt or PostgreSQL). With --outbox, prints this respondent's undelivered submissions instead.",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().BoolVar(&exportOutbox, "outbox", false, "Print undelivered local submissions")
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if exportOutbox {
		subs, err := app.ReadOutbox(paths.Outbox)
		if err != nil {
			return err
		}
		if subs == nil {
			return enc.Encode([]any{})
		}
		return enc.Encode(subs)
	}

	if cfg.Server.DatabaseURL == "" {
		if _, err := os.Stat(paths.CollectDB); os.IsNotExist(err) {
			return enc.Encode([]ports.StoredSubmission{})
		}
	}
	coll, err := app.NewCollection(cmd.Context(), app.CollectionConfig{
		Paths:       paths,
		Layout:      cfg.Layout(),
		DatabaseURL: cfg.Server.DatabaseURL,
		Logger:      logger,
	})
	if err != nil {
		if isDBLockError(err) {
			return fmt.Errorf("cannot export: %s", diagnoseDBLock(paths.CollectDB))
		}
		return err
	}
	defer func() { err = multierr.Append(err, coll.Close()) }()

	all, err := coll.Submissions(cmd.Context())
	if err != nil {
		return err
	}
	if all == nil {
		all = []ports.StoredSubmission{}
	}
	return enc.Encode(all)
}
