package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Format of an exported lead table
type Format string

const (
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps "", "tsv", "xlsx" and "excel" to a Format
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "tsv":
		return FormatTSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be tsv or xlsx", s)
	}
}

// ContentType returns the MIME type stored with the artifact
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/tab-separated-values"
}

// Extension returns the file extension without the dot
func (f Format) Extension() string {
	return string(f)
}

// Row is an uploaded record with ordered columns
type Row interface {
	Fields() []string
	Get(column string) string
}

// ColumnsOf returns the union of every row's columns in first-seen order
func ColumnsOf[R Row](rows []R) []string {
	seen := map[string]bool{}
	columns := []string{}
	for _, r := range rows {
		for _, col := range r.Fields() {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}
	return columns
}

// Table projects rows onto columns. Missing values become empty cells.
func Table[R Row](columns []string, rows []R) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		record := make([]string, len(columns))
		for j, col := range columns {
			record[j] = r.Get(col)
		}
		out[i] = record
	}
	return out
}

// Encode writes the table in the given format
func Encode(w io.Writer, format Format, columns []string, rows [][]string) error {
	switch format {
	case FormatXLSX:
		return EncodeXLSX(w, columns, rows)
	case FormatTSV:
		return EncodeTSV(w, columns, rows)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// EncodeTSV writes a tab-separated table with a header row
func EncodeTSV(w io.Writer, columns []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	writer.Comma = '\t'

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// SheetName is the worksheet holding exported leads
const SheetName = "Leads"

// EncodeXLSX writes the table as a single-sheet workbook with a bold header
func EncodeXLSX(w io.Writer, columns []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeSheetRow(f, 1, columns); err != nil {
		return err
	}
	if len(columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	for i, row := range rows {
		if err := writeSheetRow(f, i+2, row); err != nil {
			return err
		}
	}

	for i := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(SheetName, col, col, 20)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, row int, values []string) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
