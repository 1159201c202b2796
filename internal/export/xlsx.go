package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/aarogya/billing-backend/internal/billing"
)

const xlsxSheet = "Sheet1"

// CollectionsXLSX renders the collection summary as a spreadsheet with one
// row per payment method and a closing totals block.
func CollectionsXLSX(summary billing.CollectionSummary, from, to *time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	title := "Collection Report"
	if from != nil && to != nil {
		title = fmt.Sprintf("Collection Report (%s to %s)", from.Format("02 Jan 2006"), to.Format("02 Jan 2006"))
	}
	if err := f.SetCellValue(xlsxSheet, "A1", title); err != nil {
		return nil, fmt.Errorf("failed to write title: %w", err)
	}

	header := []string{"Payment Method", "Amount Collected", "Dues Collected", "Total"}
	for i, cell := range header {
		col, _ := excelize.CoordinatesToCellName(i+1, 3)
		if err := f.SetCellValue(xlsxSheet, col, cell); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	methods := make([]string, 0, len(summary.TotalAmount))
	for method := range summary.TotalAmount {
		methods = append(methods, method)
	}
	sort.Strings(methods)

	row := 4
	for _, method := range methods {
		collected, _ := summary.AmountCollected[method].Float64()
		dues, _ := summary.DuesCollected[method].Float64()
		total, _ := summary.TotalAmount[method].Float64()

		values := []interface{}{method, collected, dues, total}
		for i, value := range values {
			col, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(xlsxSheet, col, value); err != nil {
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
		row++
	}

	row++
	refund, _ := summary.Refund.Float64()
	footer := [][]interface{}{
		{"Total Transactions", summary.TotalTransactions},
		{"Refund", refund},
		{"Grand Total", billing.FormatINR(summary.GrandTotal, 2)},
	}
	for _, pair := range footer {
		keyCell, _ := excelize.CoordinatesToCellName(1, row)
		valueCell, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellValue(xlsxSheet, keyCell, pair[0]); err != nil {
			return nil, fmt.Errorf("failed to write footer: %w", err)
		}
		if err := f.SetCellValue(xlsxSheet, valueCell, pair[1]); err != nil {
			return nil, fmt.Errorf("failed to write footer: %w", err)
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// DuesXLSX renders the per-bill dues report as a spreadsheet
func DuesXLSX(rows []billing.DuesRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header := []string{"Bill Number", "Patient", "Status", "Bill Amount", "Paid Amount", "Due", "Excess"}
	for i, cell := range header {
		col, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(xlsxSheet, col, cell); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for r, duesRow := range rows {
		patient := duesRow.PatientName
		if patient == "" {
			patient = "N/A"
		}
		billAmount, _ := duesRow.BillAmount.Float64()
		paid, _ := duesRow.PaidAmount.Float64()
		due, _ := duesRow.Due.Float64()
		excess, _ := duesRow.Excess.Float64()

		values := []interface{}{duesRow.BillNumber, patient, duesRow.Status, billAmount, paid, due, excess}
		for i, value := range values {
			col, _ := excelize.CoordinatesToCellName(i+1, r+2)
			if err := f.SetCellValue(xlsxSheet, col, value); err != nil {
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
