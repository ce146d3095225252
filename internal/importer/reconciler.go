package importer

import (
	"context"
	"fmt"

	"stock-service/internal/repository"
)

// Reconciler merges parsed sheets into the catalog.
type Reconciler struct {
	store   repository.ItemStore
	maxRows int
}

// NewReconciler returns a reconciler writing to store. A maxRows of zero
// disables the row cap.
func NewReconciler(store repository.ItemStore, maxRows int) *Reconciler {
	return &Reconciler{store: store, maxRows: maxRows}
}

// Reconcile upserts every usable row of sheet by item code inside one
// transaction. Row failures are tallied and never stop the batch; a
// structural problem or a failed transaction returns a *StructuralError
// and leaves the catalog unchanged.
func (r *Reconciler) Reconcile(ctx context.Context, flavor Flavor, sheet *Sheet, fileName string) (*Outcome, error) {
	cols, err := flavor.resolveColumns(sheet.Header)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row.Number <= sheet.HeaderRow+flavor.SkipRows {
			continue
		}
		rows = append(rows, row)
	}
	if r.maxRows > 0 && len(rows) > r.maxRows {
		return nil, structural(ErrTooManyRows, fmt.Sprintf("%d rows, limit %d", len(rows), r.maxRows))
	}

	var outcome *Outcome
	err = r.store.Transaction(ctx, func(tx repository.ItemStore) error {
		outcome = newOutcome(flavor, fileName)
		outcome.TotalRows = len(rows)
		lowStock := make(map[string]bool)
		var order []string

		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}

			code := row.Cell(cols[ColumnCode])
			name := row.Cell(cols[ColumnName])
			if code == "" || name == "" {
				outcome.Skipped++
				continue
			}

			patch, rowErr := flavor.buildPatch(row, cols)
			if rowErr != nil {
				outcome.addError(*rowErr)
				continue
			}

			item, created, err := tx.UpsertByCode(ctx, code, patch)
			if err != nil {
				outcome.addError(RowError{
					Row:     row.Number,
					Kind:    RowErrorPersist,
					Message: fmt.Sprintf("Baris %d: gagal menyimpan kode %s: %v", row.Number, code, err),
				})
				continue
			}
			if created {
				outcome.Created++
			} else {
				outcome.Updated++
			}

			if _, seen := lowStock[code]; !seen {
				order = append(order, code)
			}
			lowStock[code] = item.IsLowStock()
		}

		for _, code := range order {
			if lowStock[code] {
				outcome.LowStock = append(outcome.LowStock, code)
			}
		}
		return nil
	})
	if err != nil {
		return nil, structural(ErrImportAborted, err.Error())
	}
	return outcome, nil
}
