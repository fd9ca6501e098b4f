// Package spreadsheet reads product import workbooks and writes report exports.
package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"stockflow/internal/core/apperror"
	"stockflow/internal/domain/catalogs/product"
)

// ContentType is the MIME type of generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Column is one export column.
type Column struct {
	Title string
	Width float64
}

// Sheet is a single-sheet workbook with a bold header row.
type Sheet struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// Write renders the sheet as xlsx into w.
func Write(w io.Writer, s Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	name := s.Name
	if name == "" {
		name = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(s.Columns))
	for i, c := range s.Columns {
		header[i] = c.Title
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if c.Width > 0 {
			if err := f.SetColWidth(name, col, col, c.Width); err != nil {
				return err
			}
		}
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if len(s.Columns) > 0 {
		last, err := excelize.CoordinatesToCellName(len(s.Columns), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(name, "A1", last, bold); err != nil {
			return err
		}
	}

	for i, row := range s.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReadProducts reads Name, Category and Unit from the first three columns of
// the first sheet, skipping the header row and blank rows.
func ReadProducts(r io.Reader) ([]product.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperror.NewValidation("file is not a valid xlsx workbook").WithCause(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperror.NewValidation("no worksheet found in file")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	out := make([]product.ImportRow, 0, len(rows))
	for i, cells := range rows {
		if i == 0 {
			continue
		}
		row := product.ImportRow{
			Row:      i + 1,
			Name:     cell(cells, 0),
			Category: cell(cells, 1),
			Unit:     cell(cells, 2),
		}
		if row.Name == "" && row.Category == "" && row.Unit == "" {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func cell(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}
