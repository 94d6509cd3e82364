// Package cli implements genrectl, a terminal front end to the same services
// the HTTP API exposes.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/genre-tester/backend/internal/app"
	"github.com/genre-tester/backend/pkg/clock"
	"github.com/genre-tester/backend/pkg/config"
	"github.com/genre-tester/backend/pkg/logger"
)

type rootOptions struct {
	cfgFile  string
	instant  bool
	store    string
	logLevel string

	app *app.App
}

// NewRootCommand builds the command tree. Each invocation gets its own
// options so tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "genrectl",
		Short: "Try the genre classification demo from a terminal",
		Long: "genrectl uploads audio files for (simulated) genre prediction, runs " +
			"simulated training sessions and shows the recorded history.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["skipApp"] == "true" {
				return nil
			}
			return opts.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.app == nil {
				return nil
			}
			defer logger.Sync()
			return opts.app.Close()
		},
	}

	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is ./config.yaml)")
	root.PersistentFlags().BoolVar(&opts.instant, "instant", false, "Skip the simulated latencies")
	root.PersistentFlags().StringVar(&opts.store, "store", "", "Training history store: redis|memory (overrides config)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug|info|warn|error")

	root.AddCommand(
		newModelsCommand(),
		newPredictCommand(opts),
		newTrainCommand(opts),
		newHistoryCommand(opts),
		newSummaryCommand(opts),
	)

	return root
}

func (o *rootOptions) setup() error {
	cfg, err := config.LoadFile(o.cfgFile)
	if err != nil {
		return err
	}

	if o.store != "" {
		switch strings.ToLower(o.store) {
		case "redis", "memory":
			cfg.History.Store = strings.ToLower(o.store)
		default:
			return fmt.Errorf("invalid --store %q (expected redis|memory)", o.store)
		}
	}

	if err := logger.Init(o.logLevel, "console", "stderr"); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	var appOpts app.Options
	if o.instant {
		appOpts.Clock = clock.Instant{NowFunc: time.Now}
	}

	a, err := app.New(cfg, appOpts)
	if err != nil {
		return err
	}
	o.app = a
	return nil
}
