package rowsource

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kasuganosora/colprofiler/internal/profile"
)

// Excel is a profile.RowSource over one sheet of an .xlsx workbook. The
// whole sheet is read on every Open via excelize's GetRows, matching the
// engine's Excel adapter, which also loads a sheet in full rather than
// streaming it.
type Excel struct {
	Path      string
	SheetName string // empty selects the workbook's first sheet
	HasHeader bool
}

func (e *Excel) Open(_ context.Context) (profile.RowIter, error) {
	f, err := excelize.OpenFile(e.Path)
	if err != nil {
		return nil, fmt.Errorf("rowsource: open excel %q: %w", e.Path, err)
	}

	sheet := e.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			f.Close()
			return nil, fmt.Errorf("rowsource: excel %q has no sheets", e.Path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("rowsource: read excel sheet %q: %w", sheet, err)
	}
	f.Close()

	if e.HasHeader && len(rows) > 0 {
		rows = rows[1:]
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	return &excelIter{rows: rows, width: width}, nil
}

type excelIter struct {
	rows  [][]string
	width int
	pos   int
	row   []profile.Value
}

func (it *excelIter) Next() bool {
	if it.pos >= len(it.rows) {
		return false
	}
	raw := it.rows[it.pos]
	it.pos++
	row := make([]profile.Value, it.width)
	for i := 0; i < it.width; i++ {
		if i < len(raw) && raw[i] != "" {
			row[i] = parseCSVField(raw[i])
		} else {
			row[i] = profile.Null
		}
	}
	it.row = row
	return true
}

func (it *excelIter) Row() []profile.Value { return it.row }
func (it *excelIter) Err() error           { return nil }
func (it *excelIter) Close() error         { return nil }
