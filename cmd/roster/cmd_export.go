package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/roster/internal/core"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		mode    string
		from    int64
		to      int64
		count   int
		assign  string
		format  string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export numbers, optionally assigning them to a person",
		Long: `Export numbers in one of three modes:

  all     every number
  range   numbers whose id is within --from and --to (inclusive)
  random  --count numbers drawn at random from the unassigned ones

With --assign the selected numbers are assigned to that person and saved
before they are written out.`,
		Example: `  roster export --mode range --from 1 --to 100 --out batch.csv
  roster export --mode random --count 50 --assign Team-X --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := core.ParseExportMode(mode)
			if err != nil {
				return err
			}
			if format != formatCSV && format != formatJSON {
				return fmt.Errorf("unknown output format %q (want csv or json)", format)
			}

			// The destination must be writable before anything is assigned.
			out := cmd.OutOrStdout()
			var file *os.File
			if outPath != "" {
				if file, err = os.Create(outPath); err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer file.Close()
				out = file
			}

			res, err := a.svc.Export(cmd.Context(), core.ExportRequest{
				Mode:     m,
				From:     from,
				To:       to,
				Count:    count,
				AssignTo: assign,
			})
			if err != nil {
				if file != nil {
					file.Close()
					os.Remove(outPath)
				}
				return err
			}

			if err := writeNumbers(out, format, res.Records); err != nil {
				return fmt.Errorf("write export: %w", err)
			}

			summary := "导出 " + strconv.Itoa(len(res.Records)) + " 条"
			if assign != "" {
				summary += "，分配给 " + assign
			}
			fmt.Fprintln(cmd.ErrOrStderr(), summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(core.ExportAll), "export mode: all, range, random")
	cmd.Flags().Int64Var(&from, "from", 0, "first id of the range")
	cmd.Flags().Int64Var(&to, "to", 0, "last id of the range")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "numbers to draw in random mode")
	cmd.Flags().StringVar(&assign, "assign", "", "assign the exported numbers to this person")
	cmd.Flags().StringVar(&format, "format", formatCSV, "output format: csv or json")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to this file instead of stdout")
	return cmd
}

func newSampleCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "sample N",
		Short: "Preview N random unassigned numbers without changing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 0 {
				return core.ValidationError{Field: "count", Value: args[0], Message: "must be a non-negative integer"}
			}
			return writeNumbers(cmd.OutOrStdout(), format, a.svc.SampleUnassigned(n))
		},
	}

	cmd.Flags().StringVar(&format, "format", formatCSV, "output format: csv or json")
	return cmd
}
