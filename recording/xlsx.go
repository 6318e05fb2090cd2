package recording

import (
	"fmt"
	"io"
	"slices"

	"github.com/xuri/excelize/v2"
)

// readWorkbook feeds the rows of one sheet to tb. An empty sheet name selects the first sheet.
func readWorkbook(r io.Reader, sheet string, tb *tableBuilder) (err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close workbook: %w", cerr)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets found in workbook")
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if !slices.Contains(sheets, sheet) {
		return fmt.Errorf("sheet %q not found in workbook (have %v)", sheet, sheets)
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	line := 0
	for rows.Next() {
		line++
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return fmt.Errorf("failed to read sheet %q row %d: %w", sheet, line, err)
		}
		if err := tb.add(cols, line); err != nil {
			return err
		}
	}
	if err := rows.Error(); err != nil {
		return fmt.Errorf("failed to iterate sheet %q: %w", sheet, err)
	}
	return nil
}
