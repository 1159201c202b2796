// Package export renders report and audit data into downloadable files:
// CSV for the receipts register, XLSX workbooks for collection and dues
// reports, and a printable PDF receipt.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/aarogya/billing-backend/internal/domain/entities"
)

// receiptCSVHeader is fixed; downstream spreadsheets key on these columns.
var receiptCSVHeader = []string{"Receipt Number", "Type", "Amount", "Date", "Created By", "Remarks"}

const csvDateLayout = "2006-01-02 15:04:05"

// ReceiptsCSV renders the receipts register as CSV
func ReceiptsCSV(receipts []*entities.Receipt) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(receiptCSVHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, receipt := range receipts {
		row := []string{
			receipt.ReceiptNumber,
			string(receipt.Type),
			receipt.Amount.StringFixed(2),
			receipt.CreatedAt.Format(csvDateLayout),
			receipt.CreatedBy,
			receipt.Remarks,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}

	return buf.Bytes(), nil
}
