package importer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const templateSheet = "Data"

// TemplateColumn describes one template column for JSON clients.
type TemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Example     string `json:"example"`
}

// Template is the JSON rendering of a flavor's expected layout.
type Template struct {
	Flavor       string           `json:"flavor"`
	Columns      []TemplateColumn `json:"columns"`
	SkipRows     int              `json:"skipRows"`
	Instructions string           `json:"instructions,omitempty"`
}

// Template describes the columns f expects.
func (f Flavor) Template() Template {
	t := Template{Flavor: f.Name, SkipRows: f.SkipRows, Instructions: f.Instructions}
	for _, field := range f.Fields {
		t.Columns = append(t.Columns, TemplateColumn{
			Name:        field.Column.Header(),
			Description: field.Description,
			Required:    field.Required,
			Example:     field.Example,
		})
	}
	return t
}

// TemplateFileName is the download name for a template of the given extension.
func (f Flavor) TemplateFileName(ext string) string {
	return fmt.Sprintf("template_%s.%s", f.Name, ext)
}

func (f Flavor) headerRow() []string {
	headers := make([]string, len(f.Fields))
	for i, field := range f.Fields {
		headers[i] = field.Column.Header()
		if field.Required {
			headers[i] += " *"
		}
	}
	return headers
}

func (f Flavor) sampleRow() []string {
	row := make([]string, len(f.Fields))
	for i, field := range f.Fields {
		row[i] = field.Example
	}
	return row
}

// instructionRow fills the rows skipped after the header so a filled-in
// template imports without edits.
func (f Flavor) instructionRow() []string {
	row := make([]string, len(f.Fields))
	if len(row) > 0 {
		row[0] = f.Instructions
	}
	return row
}

// WriteTemplateCSV writes a CSV template for f.
func WriteTemplateCSV(w io.Writer, f Flavor) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(f.headerRow()); err != nil {
		return err
	}
	for i := 0; i < f.SkipRows; i++ {
		if err := writer.Write(f.instructionRow()); err != nil {
			return err
		}
	}
	if err := writer.Write(f.sampleRow()); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// WriteTemplateXLSX writes a styled Excel template for f. Required headers
// carry a " *" suffix and a distinct fill.
func WriteTemplateXLSX(w io.Writer, f Flavor) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	if err := file.SetSheetName("Sheet1", templateSheet); err != nil {
		return err
	}

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	requiredStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	noteStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Italic: true, Color: "7F7F7F"},
	})
	if err != nil {
		return err
	}

	for i, header := range f.headerRow() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := file.SetCellValue(templateSheet, cell, header); err != nil {
			return err
		}
		style := headerStyle
		if f.Fields[i].Required {
			style = requiredStyle
		}
		if err := file.SetCellStyle(templateSheet, cell, cell, style); err != nil {
			return err
		}
		colName, _ := excelize.ColumnNumberToName(i + 1)
		if err := file.SetColWidth(templateSheet, colName, colName, 20); err != nil {
			return err
		}
	}

	row := 2
	for i := 0; i < f.SkipRows; i++ {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := file.SetCellValue(templateSheet, cell, f.Instructions); err != nil {
			return err
		}
		if err := file.SetCellStyle(templateSheet, cell, cell, noteStyle); err != nil {
			return err
		}
		row++
	}

	for i, value := range f.sampleRow() {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := file.SetCellValue(templateSheet, cell, value); err != nil {
			return err
		}
	}

	return file.Write(w)
}
