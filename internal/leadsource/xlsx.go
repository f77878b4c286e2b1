package leadsource

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// decodeXLSX reads leads from a workbook sheet whose first row is the header.
// An empty sheet name selects the first sheet.
func decodeXLSX(ctx context.Context, f *xlsx.File, sheetName string, emit func(rawLead)) error {
	sheet, err := getSheet(f, sheetName)
	if err != nil {
		return err
	}
	if len(sheet.Rows) == 0 {
		return nil
	}

	header := canonicalHeader(rowToStrings(sheet.Rows[0]))
	for _, row := range sheet.Rows[1:] {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "xlsx: context cancelled")
		}

		var raw rawLead
		for j, cell := range rowToStrings(row) {
			if j < len(header) {
				raw.set(header[j], cell)
			}
		}
		emit(raw)
	}
	return nil
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
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
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	if row == nil {
		return nil
	}
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
