package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/corey/survey/internal/app"
	"github.com/corey/survey/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath   string
	dataDirFlag  string
	endpointFlag string
	verbose      bool

	cfg    *config.Config
	paths  *app.Paths
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "survey",
	Short: "survey — urban streetscape perception survey",
	Long: `Rates a group of street images on five 1-5 scales (aesthetics, stability,
identity, depression, boredom). Progress is kept locally between commands;
the finished session is sent to the collection endpoint.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default <data-dir>/.survey/survey.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "directory holding .survey/ (default home directory)")
	rootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "", "collection endpoint URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging, mirrored to stderr")

	rootCmd.AddCommand(demographicsCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(answerCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(prevCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkImageCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
}

// setup resolves configuration and paths, then builds the logger.
// Precedence for the data root: --data-dir, SURVEY_DATA_DIR / storage.data_dir,
// home directory.
func setup(cmd *cobra.Command, args []string) error {
	root := dataDirFlag
	if root == "" {
		root = os.Getenv("SURVEY_DATA_DIR")
	}
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("locate home directory: %w", err)
		}
		root = home
	}

	path := configPath
	if path == "" {
		path = filepath.Join(root, app.DirName, config.FileName)
	}
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	if endpointFlag != "" {
		c.Endpoint.URL = endpointFlag
	}
	if dataDirFlag == "" && c.Storage.DataDir != "" {
		root = c.Storage.DataDir
	}
	c.Storage.DataDir = root
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}

	cfg = c
	paths = app.NewPaths(root)
	if err := paths.EnsureDirs(); err != nil {
		return fmt.Errorf("create %s: %w", paths.Root, err)
	}

	logger, err = newLogger(cfg.Logging.Level, paths.Log)
	return err
}

// newLogger writes JSON logs to the log file so they never interleave with
// command output. --verbose drops to debug and mirrors to stderr.
func newLogger(level, file string) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{file}
	zc.ErrorOutputPaths = []string{"stderr"}
	if verbose {
		zc.OutputPaths = append(zc.OutputPaths, "stderr")
	}
	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}

// openApp opens the respondent's session. Lock contention on the session
// database becomes an actionable message.
func openApp() (*app.App, error) {
	a, err := app.New(app.Config{
		Paths:    paths,
		Layout:   cfg.Layout(),
		Endpoint: cfg.Endpoint.URL,
		Timeout:  cfg.GetEndpointTimeout(),
		Notifier: stderrNotifier{},
		Logger:   logger,
	})
	if err != nil {
		if isDBLockError(err) {
			return nil, fmt.Errorf("cannot open session: %s", diagnoseDBLock(paths.DB))
		}
		return nil, err
	}
	return a, nil
}

// withApp runs fn against an opened app and closes it afterwards.
func withApp(fn func(a *app.App) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
