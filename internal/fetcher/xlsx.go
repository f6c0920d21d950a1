package fetcher

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures the XLSX reader.
type XLSXOptions struct {
	// SheetName selects a sheet by name. Empty picks the first sheet that
	// holds any non-blank cell.
	SheetName string
}

// ReadXLSX reads an uploaded workbook held in memory and returns the rows of
// one sheet as strings. Blank rows and trailing blank cells are dropped.
func ReadXLSX(data []byte, opts XLSXOptions) ([][]string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open workbook")
	}
	sheet, err := pickSheet(f, opts.SheetName)
	if err != nil {
		return nil, err
	}
	return sheetRows(sheet), nil
}

func pickSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	for _, sheet := range f.Sheets {
		if len(sheetRows(sheet)) > 0 {
			return sheet, nil
		}
	}
	return f.Sheets[0], nil
}

func sheetRows(sheet *xlsx.Sheet) [][]string {
	var rows [][]string
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		if cells := rowToStrings(row); len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows
}

// rowToStrings renders a row's cells, dropping trailing empty cells left
// behind by spreadsheet formatting.
func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	last := -1
	for j, cell := range row.Cells {
		cells[j] = cell.String()
		if strings.TrimSpace(cells[j]) != "" {
			last = j
		}
	}
	return cells[:last+1]
}
