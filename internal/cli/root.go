// Package cli implements the kinmark command-line interface, a thin
// presentation layer over the coordination engine. It doubles as a host
// driver: commands exist to seed records, advance the scheduling day,
// and record answers, so the engine can be exercised without the real
// review application.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"kinmark/internal/collection"
	"kinmark/internal/config"
	"kinmark/internal/engine"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Collection string
	ConfigPath string
	Verbose    bool

	cfg config.Config
}

// NewRootCommand creates the root command for the kinmark CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "kinmark",
		Short: "Cross-record sibling coordination for review collections",
		Long: "kinmark marks reviewable items from different records as siblings and\n" +
			"keeps them apart: burying on answer, sequencing new items one record at\n" +
			"a time, and spreading review due dates.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if opts.Collection != "" {
				cfg.Collection = opts.Collection
			}
			opts.cfg = cfg

			level := slog.LevelWarn
			if opts.Verbose || cfg.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Collection, "collection", "c", "", "collection database path")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "configuration file path")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewMarkCommand(opts))
	cmd.AddCommand(NewUnmarkCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewGroupsCommand(opts))
	cmd.AddCommand(NewInfoCommand(opts))
	cmd.AddCommand(NewAnswerCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewReleaseCommand(opts))
	cmd.AddCommand(NewSpreadCommand(opts))
	cmd.AddCommand(NewCatchUpCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewDayCommand(opts))

	return cmd
}

// open opens the collection and builds an engine over it.
// The caller must Close the returned store.
func (o *RootOptions) open() (*collection.Store, *engine.Engine, error) {
	store, err := collection.Open(o.cfg.Collection)
	if err != nil {
		return nil, nil, fmt.Errorf("open collection %s: %w", o.cfg.Collection, err)
	}
	eng := engine.New(store,
		engine.WithMinGap(o.cfg.MinGapDays),
		engine.WithAnswerPush(o.cfg.AnswerPushDays),
	)
	return store, eng, nil
}
