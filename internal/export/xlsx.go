// Package export renders ledger data as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"budgetwise/internal/models"
)

// SheetName is the worksheet transactions are written to.
const SheetName = "Transactions"

var headers = []string{"Date", "Kind", "Category", "Amount", "Description", "ID"}

// Transactions builds a workbook with one row per transaction, in the given
// order, below a header row.
func Transactions(txs []models.Transaction) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}

	for i, tx := range txs {
		row := i + 2
		amount, _ := tx.Amount.Round(2).Float64()
		values := []interface{}{
			tx.Date.Format("2006-01-02"),
			string(tx.Kind),
			tx.Category,
			amount,
			tx.Description,
			tx.ID,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return nil, fmt.Errorf("writing row %d: %w", row, err)
			}
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 12)
	_ = f.SetColWidth(SheetName, "B", "B", 10)
	_ = f.SetColWidth(SheetName, "C", "C", 18)
	_ = f.SetColWidth(SheetName, "D", "D", 14)
	_ = f.SetColWidth(SheetName, "E", "E", 40)
	_ = f.SetColWidth(SheetName, "F", "F", 38)
	return f, nil
}

// WriteTransactions writes the workbook built by Transactions to w.
func WriteTransactions(w io.Writer, txs []models.Transaction) error {
	f, err := Transactions(txs)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
