package main

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"monori/internal/core"
)

func newShowCommand(a *app) *cobra.Command {
	var statuses []string
	cmd := &cobra.Command{
		Use:   "show <report.json>",
		Short: "Print the summary of a saved report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := core.ReadReport(a.fs, args[0])
			if err != nil {
				return err
			}
			if len(statuses) > 0 {
				want, err := parseStatuses(statuses)
				if err != nil {
					return err
				}
				report.Results = lo.Filter(report.Results, func(r core.CheckResult, _ int) bool {
					return lo.Contains(want, r.Status)
				})
			}
			printSummary(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Show only these verdicts (Good, Vulnerable, CheckFailed, ManualCheck or their report labels)")
	return cmd
}

// parseStatuses accepts either the English status names or the report labels.
func parseStatuses(names []string) ([]core.CheckStatus, error) {
	out := make([]core.CheckStatus, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		st, ok := lo.Find(core.Statuses(), func(s core.CheckStatus) bool {
			return strings.EqualFold(s.Name(), n) || s.String() == n
		})
		if !ok {
			return nil, fmt.Errorf("unknown status %q", n)
		}
		out = append(out, st)
	}
	return out, nil
}
