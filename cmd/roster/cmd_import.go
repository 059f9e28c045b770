package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/roster/internal/core"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		file   string
		text   string
		assign string
		source string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk import numbers from pasted text, a file or stdin",
		Long: `Import numbers, one per line: phoneNumber,name,age[,note].

Blank lines are skipped. Rows without a phone number, and numbers already in
the roster or repeated within the batch, are rejected and counted. A bad age
is stored as empty. With --assign every imported number is assigned to that
person.

Input is read from --text, --file, or stdin when neither is given.`,
		Example: `  roster import --text "+1-888-000-0001,导入一,31,"
  roster import --file numbers.csv --assign Team-X
  pbpaste | roster import --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if text != "" && file != "" {
				return fmt.Errorf("use either --text or --file, not both")
			}

			in := cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open import file: %w", err)
				}
				defer f.Close()
				in = f
				if source == "" {
					source = filepath.Base(file)
				}
			}

			out := cmd.OutOrStdout()
			if dryRun {
				return runImportPreview(a, out, in, text)
			}

			req := core.ImportRequest{DefaultAssignee: assign, Source: source}
			var (
				res core.ImportResult
				err error
			)
			if text != "" {
				req.Text = text
				res, err = a.svc.Import(cmd.Context(), req)
			} else {
				res, err = a.svc.ImportReader(cmd.Context(), in, req)
			}
			if err != nil {
				return err
			}

			printStats(out, res.Stats)
			for _, r := range res.Rejected {
				fmt.Fprintf(out, "  %s\n", r.Error())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read rows from this file")
	cmd.Flags().StringVar(&text, "text", "", "rows as a single string")
	cmd.Flags().StringVar(&assign, "assign", "", "assign every imported number to this person")
	cmd.Flags().StringVar(&source, "source", "", "source tag stored as fileName (default: file name or 粘贴导入)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "classify rows without importing")
	return cmd
}

// runImportPreview prints what an import would do.
func runImportPreview(a *app, out io.Writer, in io.Reader, text string) error {
	var resp *core.PreviewResponse
	if text != "" {
		resp = a.svc.PreviewText(text)
	} else {
		var err error
		if resp, err = a.svc.PreviewImport(in); err != nil {
			return err
		}
	}

	s := resp.Summary
	fmt.Fprintf(out, "共 %d 行：可导入 %d 条，库内重复 %d 条，批内重复 %d 条，格式错误 %d 条\n",
		s.TotalRows, s.NewRows, s.DuplicateInStore, s.DuplicateInFile, s.ErrorRows)
	for _, r := range resp.NewRowSamples {
		fmt.Fprintf(out, "  + line %d: %s %s %s\n", r.LineNumber, r.PhoneNumber, r.Name, core.FormatAge(r.Age))
	}
	for _, e := range resp.ErrorSamples {
		fmt.Fprintf(out, "  - line %d: %s (%s)\n", e.LineNumber, e.Value, e.Reason)
	}
	return nil
}
