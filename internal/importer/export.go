package importer

import (
	"io"

	"github.com/xuri/excelize/v2"
	"stock-service/internal/models"
)

const exportSheet = "Barang"

// WriteCatalogExport writes items as an Excel sheet using the catalog
// import headers, so the file can be uploaded again unchanged. Minimum
// stock and expiry date follow as extra columns, which the catalog import
// ignores.
func WriteCatalogExport(w io.Writer, items []models.Item) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	if err := file.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	headers := []interface{}{
		ColumnCode.Header(),
		ColumnName.Header(),
		ColumnCategory.Header(),
		ColumnStock.Header(),
		ColumnPrice.Header(),
		ColumnMinimumStock.Header(),
		ColumnExpiryDate.Header(),
	}

	sw, err := file.NewStreamWriter(exportSheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", headers); err != nil {
		return err
	}

	for i, item := range items {
		price, _ := item.SellingPrice.Float64()
		row := []interface{}{item.Code, item.Name, item.Category, item.CurrentStock, price, nil, nil}
		if item.MinimumStock != nil {
			row[5] = *item.MinimumStock
		}
		if item.ExpiryDate != nil {
			row[6] = item.ExpiryDate.String()
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	return file.Write(w)
}
