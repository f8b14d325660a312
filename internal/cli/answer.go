package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"kinmark/internal/card"
	"kinmark/internal/engine"
)

// NewAnswerCommand creates the answer command. It records the review in
// the collection (the host scheduler's job in the real application) and
// then delivers the item-answered event to the engine.
func NewAnswerCommand(opts *RootOptions) *cobra.Command {
	var outcome int

	cmd := &cobra.Command{
		Use:   "answer <item-id>",
		Short: "Record an answer and coordinate siblings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}

			store, eng, err := opts.open()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.AddReview(cmd.Context(), card.Review{ItemID: card.ItemID(id), Outcome: outcome}); err != nil {
				return err
			}

			res, err := eng.OnAnswer(cmd.Context(), card.ItemID(id))
			if err != nil {
				return err
			}
			if res.Reason != engine.ReasonOK {
				fmt.Fprintln(cmd.OutOrStdout(), reasonLine(res.Reason))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "buried %d sibling(s), pushed %d due date(s)\n", res.Buried, res.Pushed)
			return nil
		},
	}

	cmd.Flags().IntVar(&outcome, "outcome", 0, "review outcome code")

	return cmd
}
