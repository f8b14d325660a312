package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"kinmark/internal/card"
)

// NewSeedCommand creates the seed command, a development helper that
// plays the host's role: it creates a record with new-phase items so the
// engine has something to coordinate.
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	var (
		phase string
		due   int
	)

	cmd := &cobra.Command{
		Use:   "seed <record-id> <item-id>...",
		Short: "Create a record with items (development helper)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			recID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid record id %q", args[0])
			}
			items, err := parseItemIDs(args[1:])
			if err != nil {
				return err
			}
			p := card.Phase(phase)
			if !p.Valid() {
				return fmt.Errorf("invalid phase %q", phase)
			}

			store, _, err := opts.open()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.CreateRecord(cmd.Context(), card.RecordID(recID), nil); err != nil {
				return err
			}
			for _, id := range items {
				it := card.Item{ID: id, RecordID: card.RecordID(recID), Phase: p, Activity: card.ActivityActive, Due: due}
				if err := store.CreateItem(cmd.Context(), it); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created record %d with %d item(s)\n", recID, len(items))
			return nil
		},
	}

	cmd.Flags().StringVar(&phase, "phase", string(card.PhaseNew), "item phase (new|learning|review|daylearning)")
	cmd.Flags().IntVar(&due, "due", 0, "due value")

	return cmd
}

// NewDayCommand creates the day command: show or set the scheduling day.
func NewDayCommand(opts *RootOptions) *cobra.Command {
	var set int

	cmd := &cobra.Command{
		Use:   "day",
		Short: "Show or set the scheduling day index (development helper)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := opts.open()
			if err != nil {
				return err
			}
			defer store.Close()

			if cmd.Flags().Changed("set") {
				if err := store.SetToday(cmd.Context(), set); err != nil {
					return err
				}
			}
			day, err := store.Today(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scheduling day %d\n", day)
			return nil
		},
	}

	cmd.Flags().IntVar(&set, "set", 0, "set the scheduling day")

	return cmd
}
