package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/corey/survey/internal/app"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a collection endpoint",
	Long: `Serves group allocation and submission intake on one URL, compatible with
the deployed endpoint. Groups are balanced per gender × age stratum.
Submissions are stored in .survey/collect.db, or in PostgreSQL when
server.database_url (DATABASE_URL) is set.

Point respondents at it with --endpoint http://<addr>/.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coll, err := app.NewCollection(ctx, app.CollectionConfig{
		Paths:       paths,
		Layout:      cfg.Layout(),
		DatabaseURL: cfg.Server.DatabaseURL,
		Logger:      logger,
	})
	if err != nil {
		if isDBLockError(err) {
			return fmt.Errorf("cannot serve: %s", diagnoseDBLock(paths.CollectDB))
		}
		return err
	}
	defer func() { err = multierr.Append(err, coll.Close()) }()

	return coll.Serve(ctx, addr, func(url string) {
		fmt.Printf("%s⚡ collection endpoint%s %s%s%s (%s)\n",
			colorBold, colorReset, colorCyan, url, colorReset, coll.Backend())
		fmt.Printf("%s  Ctrl-C to stop%s\n", colorGray, colorReset)
	})
}
