package importer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"stock-service/internal/models"
)

var (
	errNotANumber   = errors.New("bukan angka")
	errNegative     = errors.New("tidak boleh negatif")
	errNotWhole     = errors.New("harus bilangan bulat")
	errNotADate     = errors.New("format tanggal tidak dikenali")
	commaGrouped    = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+(\.\d+)?$`)
	dotGrouped      = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+(,\d+)?$`)
	commaDecimal    = regexp.MustCompile(`^-?\d+,\d{1,2}$`)
	excelSerial     = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// dateLayouts are tried in order; day-first layouts precede any month-first reading.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// Excel serials accepted as dates, in the 1900 date system: 1950-01-01
// through 9999-12-31. Smaller numbers are years or quantities, not dates.
const (
	minExcelSerial = 18264
	maxExcelSerial = 2958465
)

// parseNumber accepts plain decimals, an optional "Rp" or "Rp." prefix and
// grouped thousands. Dot grouping with a comma decimal mark ("1.250.000,50")
// is read the Indonesian way; comma grouping ("1,250,000.50") the English
// way. A rupiah amount like "Rp 12,500" could be either and is rejected.
func parseNumber(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	rupiah := len(s) >= 2 && strings.EqualFold(s[:2], "rp")
	if rupiah {
		s = strings.TrimPrefix(s[2:], ".")
	}
	s = strings.ReplaceAll(s, " ", "")

	switch {
	case dotGrouped.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case commaGrouped.MatchString(s):
		if rupiah && !strings.Contains(s, ".") {
			return decimal.Zero, errNotANumber
		}
		s = strings.ReplaceAll(s, ",", "")
	case rupiah && commaDecimal.MatchString(s):
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errNotANumber
	}
	return d, nil
}

// parseQuantity coerces a stock cell. Blank is zero. With strict unset,
// unusable values also become zero.
func parseQuantity(raw string, strict bool) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	d, err := parseNumber(raw)
	if err == nil && d.IsNegative() {
		err = errNegative
	}
	if err == nil && !d.IsInteger() {
		err = errNotWhole
	}
	if err != nil {
		if strict {
			return 0, err
		}
		return 0, nil
	}
	return int(d.IntPart()), nil
}

// parseOptionalQuantity returns nil for blank or unusable cells.
func parseOptionalQuantity(raw string) *int {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	n, err := parseQuantity(raw, true)
	if err != nil {
		return nil
	}
	return &n
}

// parsePrice coerces a price cell. Blank is zero.
func parsePrice(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	d, err := parseNumber(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, errNegative
	}
	return d.Round(2), nil
}

// parseDate accepts an Excel serial date or one of dateLayouts.
func parseDate(raw string) (models.Date, error) {
	s := strings.TrimSpace(raw)
	if excelSerial.MatchString(s) {
		serial, err := strconv.ParseFloat(s, 64)
		if err == nil && serial >= minExcelSerial && serial <= maxExcelSerial {
			t, err := excelize.ExcelDateToTime(serial, false)
			if err == nil {
				return models.NewDate(t), nil
			}
		}
		return models.Date{}, errNotADate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.NewDate(t), nil
		}
	}
	return models.Date{}, errNotADate
}

// buildPatch converts one row into the flavor's update scope.
func (f Flavor) buildPatch(row Row, cols columnIndex) (models.ItemPatch, *RowError) {
	var patch models.ItemPatch
	for _, field := range f.Fields {
		pos, ok := cols[field.Column]
		if !ok {
			continue
		}
		raw := row.Cell(pos)

		switch field.Column {
		case ColumnName:
			name := raw
			patch.Name = &name
		case ColumnCategory:
			if raw != "" {
				category := raw
				patch.Category = &category
			}
		case ColumnStock:
			n, err := parseQuantity(raw, field.Strict)
			if err != nil {
				return patch, coercionError(row, field.Column, raw, err)
			}
			patch.CurrentStock = &n
		case ColumnPrice:
			d, err := parsePrice(raw)
			if err != nil {
				return patch, coercionError(row, field.Column, raw, err)
			}
			patch.SellingPrice = &d
		case ColumnMinimumStock:
			if n := parseOptionalQuantity(raw); n != nil {
				patch.MinimumStock = models.SetTo(*n)
			}
		case ColumnExpiryDate:
			if raw == "" {
				patch.ExpiryDate = models.SetNull[models.Date]()
				continue
			}
			d, err := parseDate(raw)
			if err != nil {
				return patch, coercionError(row, field.Column, raw, err)
			}
			patch.ExpiryDate = models.SetTo(d)
		}
	}
	return patch, nil
}

func coercionError(row Row, col Column, raw string, err error) *RowError {
	return &RowError{
		Row:     row.Number,
		Column:  col.Header(),
		Kind:    RowErrorCoercion,
		Message: fmt.Sprintf("Baris %d: nilai '%s' pada kolom %s %v", row.Number, raw, col.Header(), err),
	}
}
