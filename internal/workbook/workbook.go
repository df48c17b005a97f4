// Package workbook reads procurement query lists from XLSX workbooks.
// Purchasing teams typically hand over a spreadsheet with one SKU or
// product description per row; this package turns that into a slice of
// query strings for batch research runs.
package workbook

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Options configures which part of the workbook holds the queries.
type Options struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	Column     int    // zero-based column holding the query text
	SkipRows   int    // number of header rows to skip
}

// ReadQueries reads one query per row from the configured sheet and
// column. Blank cells are skipped.
func ReadQueries(path string, opts Options) ([]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "workbook: open file")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	var queries []string
	for i, row := range sheet.Rows {
		if i < opts.SkipRows {
			continue
		}
		if opts.Column >= len(row.Cells) {
			continue
		}
		text := strings.TrimSpace(row.Cells[opts.Column].String())
		if text == "" {
			continue
		}
		queries = append(queries, text)
	}

	return queries, nil
}

func getSheet(f *xlsx.File, opts Options) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("workbook: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("workbook: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}
