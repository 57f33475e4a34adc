package main

import (
	"github.com/spf13/cobra"

	"github.com/leeforge/mediakit/json"
	"github.com/leeforge/mediakit/sheet"
)

type sheetReadOptions struct {
	header bool
	sheet  int
	row    int
	col    int
}

func newSheetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheet",
		Short: "Spreadsheet utilities",
	}
	cmd.AddCommand(newSheetReadCmd(a))
	return cmd
}

func newSheetReadCmd(a *app) *cobra.Command {
	var opts sheetReadOptions
	cmd := &cobra.Command{
		Use:     "read FILE",
		Short:   "Print the rows of a worksheet as JSON records",
		Example: "  mediakit sheet read report.xlsx --header --sheet 1",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				records []sheet.Record
				err     error
			)
			if opts.header {
				records, err = sheet.ReadWithHeader(args[0], opts.sheet)
			} else {
				records, err = sheet.ReadFile(args[0], opts.sheet, opts.row, opts.col)
			}
			if err != nil {
				return err
			}
			if records == nil {
				records = []sheet.Record{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.header, "header", false, "use the first row as record keys")
	f.IntVar(&opts.sheet, "sheet", 0, "zero-based sheet index")
	f.IntVar(&opts.row, "row", 0, "zero-based first row (without --header)")
	f.IntVar(&opts.col, "col", 0, "zero-based first column (without --header)")
	return cmd
}
