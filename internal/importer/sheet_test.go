package importer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// xlsxFile builds an in-memory workbook whose first sheet holds rows.
func xlsxFile(t *testing.T, rows ...[]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range rows {
		row := row
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return bytes.NewReader(buf.Bytes())
}

func TestParseSheet_CSVKeepsFileRowNumbers(t *testing.T) {
	data := "\ufeffKode,Nama Barang\n\nA1,Kopi\n,\nA2,Teh\n"

	sheet, err := ParseSheet(strings.NewReader(data), "stok.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Kode", "Nama Barang"}, sheet.Header)
	assert.Equal(t, 1, sheet.HeaderRow)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, 3, sheet.Rows[0].Number)
	assert.Equal(t, 5, sheet.Rows[1].Number)
	assert.Equal(t, "A2", sheet.Rows[1].Cell(0))
}

func TestParseSheet_XLSXRawValues(t *testing.T) {
	r := xlsxFile(t,
		[]interface{}{"Kode", "Nama Barang", "Total Stok", "Harga Jual"},
		[]interface{}{"A1", "Kopi", 12, 15000.5},
	)

	sheet, err := ParseSheet(r, "stok.XLSX")
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 1)
	row := sheet.Rows[0]
	assert.Equal(t, 2, row.Number)
	assert.Equal(t, "12", row.Cell(2))
	assert.Equal(t, "15000.5", row.Cell(3))
	assert.Equal(t, "", row.Cell(10))
}

func TestParseSheet_HeaderAfterBlankRows(t *testing.T) {
	r := xlsxFile(t,
		[]interface{}{nil},
		[]interface{}{"Kode", "Nama Barang"},
		[]interface{}{"A1", "Kopi"},
	)

	sheet, err := ParseSheet(r, "stok.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 2, sheet.HeaderRow)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, 3, sheet.Rows[0].Number)
}

func TestParseSheet_StructuralFailures(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		fileName string
		want     error
	}{
		{"unsupported extension", "Kode\nA1\n", "stok.pdf", ErrUnsupportedFormat},
		{"empty csv", "\n\n", "stok.csv", ErrEmptyFile},
		{"corrupt xlsx", "not a zip", "stok.xlsx", ErrUnreadableFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSheet(strings.NewReader(tt.data), tt.fileName)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var se *StructuralError
			assert.True(t, errors.As(err, &se))
			assert.NotEmpty(t, se.Message())
		})
	}
}
