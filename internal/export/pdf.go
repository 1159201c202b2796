package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/aarogya/billing-backend/internal/billing"
	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/pkg/config"
)

// ReceiptPDF renders a printable receipt with the hospital letterhead and the
// billing snapshot frozen on the receipt. Amounts use "Rs." because the core
// PDF fonts have no rupee glyph.
func ReceiptPDF(receipt *entities.Receipt, hospital config.HospitalConfig) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 8, hospital.Name, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	if hospital.Address != "" {
		pdf.CellFormat(0, 5, hospital.Address, "", 1, "C", false, 0, "")
	}
	var contact []string
	if hospital.Phone != "" {
		contact = append(contact, "Phone: "+hospital.Phone)
	}
	if hospital.GSTIN != "" {
		contact = append(contact, "GSTIN: "+hospital.GSTIN)
	}
	if len(contact) > 0 {
		pdf.CellFormat(0, 5, strings.Join(contact, "  |  "), "", 1, "C", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "RECEIPT", "T", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	meta := [][2]string{
		{"Receipt No", receipt.ReceiptNumber},
		{"Bill No", receipt.BillNumber},
		{"Type", string(receipt.Type)},
		{"Date", receipt.CreatedAt.Format("02 Jan 2006 15:04")},
		{"Issued By", receipt.CreatedBy},
	}
	for _, pair := range meta {
		pdf.CellFormat(40, 6, pair[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, pair[1], "", 1, "L", false, 0, "")
	}

	var snapshot entities.BillingSnapshotPayload
	if len(receipt.BillingSnapshot) > 0 {
		if err := json.Unmarshal(receipt.BillingSnapshot, &snapshot); err != nil {
			return nil, fmt.Errorf("failed to decode billing snapshot: %w", err)
		}
	}

	if len(snapshot.Items) > 0 {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(70, 6, "Item", "B", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, "Category", "B", 0, "L", false, 0, "")
		pdf.CellFormat(15, 6, "Qty", "B", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, "Price", "B", 0, "R", false, 0, "")
		pdf.CellFormat(0, 6, "Total", "B", 1, "R", false, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		for _, item := range snapshot.Items {
			pdf.CellFormat(70, 6, item.Name, "", 0, "L", false, 0, "")
			pdf.CellFormat(30, 6, item.CategoryOrDefault(), "", 0, "L", false, 0, "")
			pdf.CellFormat(15, 6, fmt.Sprintf("%d", item.Quantity), "", 0, "R", false, 0, "")
			pdf.CellFormat(30, 6, pdfAmount(item.Price), "", 0, "R", false, 0, "")
			pdf.CellFormat(0, 6, pdfAmount(item.LineTotal()), "", 1, "R", false, 0, "")
		}

		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 10)
		totals := [][2]string{
			{"Subtotal", pdfAmount(snapshot.Totals.Subtotal)},
			{"Grand Total", pdfAmount(snapshot.Totals.GrandTotal)},
			{"Amount", pdfAmount(receipt.Amount)},
		}
		for _, pair := range totals {
			pdf.CellFormat(145, 6, pair[0], "", 0, "R", false, 0, "")
			pdf.CellFormat(0, 6, pair[1], "", 1, "R", false, 0, "")
		}
	}

	if receipt.Remarks != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 5, "Remarks: "+receipt.Remarks, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func pdfAmount(amount decimal.Decimal) string {
	return strings.Replace(billing.FormatINR(amount, 2), "₹", "Rs. ", 1)
}
