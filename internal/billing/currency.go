package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatINR renders an amount with the rupee symbol and Indian digit grouping
// (last three digits, then groups of two: ₹12,34,567.00). fractionDigits is
// typically 0 for whole-rupee views and 2 for paise views.
func FormatINR(amount decimal.Decimal, fractionDigits int) string {
	negative := amount.IsNegative()
	fixed := amount.Abs().StringFixed(int32(fractionDigits))

	intPart := fixed
	fracPart := ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, fracPart = fixed[:i], fixed[i:]
	}

	grouped := groupIndian(intPart)

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	b.WriteString("₹")
	b.WriteString(grouped)
	b.WriteString(fracPart)
	return b.String()
}

// groupIndian inserts commas per the Indian numbering system
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}

	return strings.Join(groups, ",") + "," + tail
}
