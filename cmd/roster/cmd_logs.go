package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/roster/internal/core"
)

func newLogsCmd(a *app) *cobra.Command {
	var (
		filter core.LogFilter
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the audit log, oldest first",
		Example: `  roster logs --limit 20
  roster logs --action 导出并分配 --contains Team-X`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			entries := a.svc.Logs(filter)
			if asJSON {
				return writeJSON(out, entries)
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s\t%s\t%s\n", e.Timestamp, e.Action, e.Content)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Action, "action", "", "only entries with this action")
	cmd.Flags().StringVar(&filter.Contains, "contains", "", "only entries whose content contains this text")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 0, "only the most recent N entries (0 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show roster totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			st := a.svc.Stats()
			if asJSON {
				return writeJSON(out, st)
			}
			fmt.Fprintf(out, "号码 %d 条（未分配 %d 条），人员 %d 个，日志 %d 条\n",
				st.Numbers, st.Unassigned, st.Persons, st.Logs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
