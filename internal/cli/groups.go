package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewGroupsCommand creates the groups command.
func NewGroupsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List all sibling groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, eng, err := opts.open()
			if err != nil {
				return err
			}
			defer store.Close()

			groups, err := eng.AllGroups(cmd.Context())
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no sibling groups defined yet; use mark to create one")
				return nil
			}

			names := make([]string, 0, len(groups))
			for name := range groups {
				names = append(names, name)
			}
			sort.Strings(names)

			rows := make([][]string, 0, len(names))
			total := 0
			for _, name := range names {
				members := groups[name]
				total += len(members)
				ids := make([]string, len(members))
				for i, id := range members {
					ids[i] = strconv.FormatInt(int64(id), 10)
				}
				rows = append(rows, []string{name, strconv.Itoa(len(members)), strings.Join(ids, " ")})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Group", "Records", "Members"}, rows))
			fmt.Fprintf(cmd.OutOrStdout(), "%d group(s), %d membership(s)\n", len(names), total)
			return nil
		},
	}
}

// NewInfoCommand creates the info command.
func NewInfoCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <item-id>...",
		Short: "Show group membership for items' records",
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

			infos, err := eng.Info(cmd.Context(), items)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no matching records")
				return nil
			}

			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				groupsCol := strings.Join(info.Groups, ", ")
				if groupsCol == "" {
					groupsCol = "(none)"
				}
				rows = append(rows, []string{strconv.FormatInt(int64(info.Record), 10), groupsCol})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Record", "Groups"}, rows))
			return nil
		},
	}
}
