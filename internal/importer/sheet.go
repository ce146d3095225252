package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one data row with its 1-based spreadsheet row number.
type Row struct {
	Number int
	Cells  []string
}

// Cell returns the trimmed value at pos, or "" past the end of the row.
func (r Row) Cell(pos int) string {
	if pos < 0 || pos >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[pos])
}

func (r Row) isBlank() bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Sheet is the header and data rows of the first worksheet of an upload.
type Sheet struct {
	Header    []string
	HeaderRow int
	Rows      []Row
}

// ParseSheet reads an .xlsx or .csv upload, picking the parser by file name.
// Fully blank rows are dropped.
func ParseSheet(r io.Reader, fileName string) (*Sheet, error) {
	var (
		table [][]string
		err   error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		table, err = readXLSX(r)
	case ".csv":
		table, err = readCSV(r)
	default:
		return nil, structural(ErrUnsupportedFormat, filepath.Ext(fileName))
	}
	if err != nil {
		var se *StructuralError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, structural(ErrUnreadableFile, err.Error())
	}
	return buildSheet(table)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, structural(ErrEmptyFile, "no sheets found in Excel file")
	}

	// Raw values keep date cells as serial numbers and numbers unformatted.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", len(rows)+1, err)
		}
		// csv.Reader drops empty lines; pad so row numbers match the file.
		line, _ := reader.FieldPos(0)
		for len(rows) < line-1 {
			rows = append(rows, nil)
		}
		rows = append(rows, record)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func buildSheet(table [][]string) (*Sheet, error) {
	headerAt := -1
	for i, cells := range table {
		if !(Row{Cells: cells}).isBlank() {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, structural(ErrEmptyFile, "")
	}

	sheet := &Sheet{Header: table[headerAt], HeaderRow: headerAt + 1}
	for i := headerAt + 1; i < len(table); i++ {
		row := Row{Number: i + 1, Cells: table[i]}
		if row.isBlank() {
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}
