package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kinmark/internal/engine"
)

// NewMarkCommand creates the mark command.
func NewMarkCommand(opts *RootOptions) *cobra.Command {
	var (
		name        string
		useExisting bool
		createNew   bool
	)

	cmd := &cobra.Command{
		Use:   "mark <item-id>...",
		Short: "Mark items from different records as siblings",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := parseItemIDs(args)
			if err != nil {
				return err
			}

			resolve := engine.ResolveNone
			switch {
			case useExisting && createNew:
				return fmt.Errorf("--use-existing and --new are mutually exclusive")
			case useExisting:
				resolve = engine.ResolveUseExisting
			case createNew:
				resolve = engine.ResolveCreateNew
			}

			store, eng, err := opts.open()
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := eng.Mark(cmd.Context(), items, name, resolve)
			if err != nil {
				return err
			}

			switch res.Reason {
			case engine.ReasonOK:
				if res.Modified == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "records were already in group %q\n", res.Group)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "marked %d record(s) as siblings (group %q)\n", res.Modified, res.Group)
			case engine.ReasonAmbiguousGroups:
				fmt.Fprintf(cmd.OutOrStdout(),
					"selection already spans group(s): %s\nre-run with --use-existing or --new\n",
					strings.Join(res.Existing, ", "))
			default:
				fmt.Fprintln(cmd.OutOrStdout(), reasonLine(res.Reason))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "group name (supports one :: hierarchy level)")
	cmd.Flags().BoolVar(&useExisting, "use-existing", false, "reuse the first existing group on ambiguity")
	cmd.Flags().BoolVar(&createNew, "new", false, "create a new group on ambiguity")

	return cmd
}

// NewUnmarkCommand creates the unmark command.
func NewUnmarkCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unmark <item-id>...",
		Short: "Detach items' records from every sibling group",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := parseItemIDs(args)
			if err != nil {
				return err
			}

			store, eng, err := opts.open()
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := eng.Unmark(cmd.Context(), items)
			if err != nil {
				return err
			}
			if res.Reason != engine.ReasonOK {
				fmt.Fprintln(cmd.OutOrStdout(), reasonLine(res.Reason))
				return nil
			}
			if res.Modified == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "selected items were not in any sibling group")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d record(s) from sibling groups (%d item(s) unsuspended)\n",
				res.Modified, res.Released)
			return nil
		},
	}
}

// NewAddCommand creates the add command.
func NewAddCommand(opts *RootOptions) *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "add <item-id>...",
		Short: "Add items' records to an existing sibling group",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := parseItemIDs(args)
			if err != nil {
				return err
			}

			store, eng, err := opts.open()
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := eng.AddToGroup(cmd.Context(), items, group)
			if err != nil {
				return err
			}
			if res.Reason != engine.ReasonOK {
				fmt.Fprintln(cmd.OutOrStdout(), reasonLine(res.Reason))
				return nil
			}
			if res.Modified == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "records were already in group %q\n", res.Group)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d record(s) to group %q\n", res.Modified, res.Group)
			return nil
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "target group name")
	cmd.MarkFlagRequired("group")

	return cmd
}
