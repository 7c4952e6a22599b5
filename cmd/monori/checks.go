package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"monori/internal/checks"
)

type catalogRow struct {
	Code       string `json:"code"`
	Category   string `json:"category"`
	Importance string `json:"importance"`
	Item       string `json:"item"`
}

func newChecksCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "checks",
		Short: "List the checks of this build in run order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := checks.Select(a.cfg.Checks)
			if err != nil {
				return err
			}
			rows := make([]catalogRow, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, catalogRow{
					Code:       e.Code,
					Category:   e.Category.String(),
					Importance: e.Importance.String(),
					Item:       e.Item,
				})
			}
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			case "text":
				for _, r := range rows {
					fmt.Fprintf(out, "%s  %-6s  %s  %s\n", r.Code, r.Category, r.Importance, r.Item)
				}
				return nil
			}
			return fmt.Errorf("unsupported output format: %s (supported: text, json)", format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text|json)")
	return cmd
}
