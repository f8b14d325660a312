package cli

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"kinmark/internal/card"
	"kinmark/internal/engine"
)

// renderTable renders a rounded-corner table for terminal output.
func renderTable(headers []string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range header {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, len(headers))
	for i := range headers {
		configs[i] = table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// parseItemIDs parses positional item-identifier arguments.
func parseItemIDs(args []string) ([]card.ItemID, error) {
	ids := make([]card.ItemID, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid item id %q", a)
		}
		ids = append(ids, card.ItemID(v))
	}
	return ids, nil
}

// reasonLine translates a refusal reason into a user-facing message.
func reasonLine(reason engine.Reason) string {
	switch reason {
	case engine.ReasonNoCollection:
		return "no collection open"
	case engine.ReasonNotFound:
		return "no such item"
	case engine.ReasonTooFewRecords:
		return "select items from at least 2 records; items of one record are already native siblings"
	case engine.ReasonNoSuchGroup:
		return "no such group; use mark to create one"
	case engine.ReasonAmbiguousGroups:
		return "selection already spans existing groups"
	}
	return string(reason)
}
