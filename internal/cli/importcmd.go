package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kinmark/internal/card"
	"kinmark/internal/engine"
)

// legacyFile is the pre-label private storage format: a flat JSON file
// mapping group identifiers to item identifiers.
type legacyFile struct {
	Groups map[string][]card.ItemID `json:"groups"`
}

// NewImportCommand creates the import command. The legacy file is
// replayed through the engine's add-label path and renamed with a
// .migrated suffix afterwards so the conversion runs exactly once.
func NewImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <legacy.json>",
		Short: "Import sibling groups from the legacy JSON format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read legacy file: %w", err)
			}

			var legacy legacyFile
			if err := json.Unmarshal(data, &legacy); err != nil {
				return fmt.Errorf("parse legacy file %s: %w", path, err)
			}

			store, eng, err := opts.open()
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := eng.ImportLegacy(cmd.Context(), legacy.Groups)
			if err != nil {
				return err
			}
			if res.Reason != engine.ReasonOK {
				fmt.Fprintln(cmd.OutOrStdout(), reasonLine(res.Reason))
				return nil
			}

			if err := os.Rename(path, path+".migrated"); err != nil {
				return fmt.Errorf("mark legacy file migrated: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d group(s), %d record(s) labeled\n", res.Groups, res.Modified)
			return nil
		},
	}
}
