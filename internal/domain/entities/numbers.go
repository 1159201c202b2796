package entities

import (
	"strings"
	"time"
)

// NewBillNumber generates a human-readable bill number, e.g. BILL-20260829-4F2A1C
func NewBillNumber(now time.Time) string {
	return "BILL-" + now.Format("20060102") + "-" + strings.ToUpper(randomString(6))
}

// NewReceiptNumber generates a human-readable receipt number, e.g. RCP-20260829-9B07D3
func NewReceiptNumber(now time.Time) string {
	return "RCP-" + now.Format("20060102") + "-" + strings.ToUpper(randomString(6))
}
