package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"kinmark/internal/engine"
)

// NewReconcileCommand creates the reconcile command, the
// profile-activated event: catch up on remote reviews, advance release
// queues, re-spread due dates.
func NewReconcileCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile drift: catch up, release, spread",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, eng, err := opts.open()
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := eng.OnProfileActivated(cmd.Context())
			if err != nil {
				return err
			}
			if res.Reason != engine.ReasonOK {
				fmt.Fprintln(cmd.OutOrStdout(), reasonLine(res.Reason))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"caught up %d review(s) (%d buried), released %d item(s), rescheduled %d due date(s)\n",
				res.CatchUp.Replayed, res.CatchUp.Buried, res.Released, res.Rescheduled)
			return nil
		},
	}
}

// NewReleaseCommand creates the release command.
func NewReleaseCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "release",
		Short: "Advance each group's new-item release queue by one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, eng, err := opts.open()
			if err != nil {
				return err
			}
			defer store.Close()

			released, err := eng.ReleaseNext(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "released %d item(s)\n", released)
			return nil
		},
	}
}

// NewSpreadCommand creates the spread command.
func NewSpreadCommand(opts *RootOptions) *cobra.Command {
	var (
		group string
		gap   int
	)

	cmd := &cobra.Command{
		Use:   "spread",
		Short: "Spread due review siblings apart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, eng, err := opts.open()
			if err != nil {
				return err
			}
			defer store.Close()

			if gap < 1 {
				gap = opts.cfg.MinGapDays
			}

			var n int
			if group != "" {
				n, err = eng.Spread(cmd.Context(), group, gap)
			} else {
				n, err = eng.SpreadAll(cmd.Context())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rescheduled %d item(s)\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "spread a single group (default all)")
	cmd.Flags().IntVar(&gap, "gap", 0, "minimum gap in days (default from config)")

	return cmd
}

// NewCatchUpCommand creates the catchup command, the sync-finished event.
func NewCatchUpCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catchup",
		Short: "Replay review history recorded while the engine was away",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, eng, err := opts.open()
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := eng.OnSyncFinished(cmd.Context())
			if err != nil {
				return err
			}
			if res.Reason != engine.ReasonOK {
				fmt.Fprintln(cmd.OutOrStdout(), reasonLine(res.Reason))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "replayed %d review(s), buried %d sibling(s)\n", res.Replayed, res.Buried)
			return nil
		},
	}
}
