package billing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aarogya/billing-backend/internal/billing"
)

func TestFormatINR(t *testing.T) {
	cases := []struct {
		amount   string
		digits   int
		expected string
	}{
		{"0", 0, "₹0"},
		{"999", 0, "₹999"},
		{"1000", 0, "₹1,000"},
		{"123456", 0, "₹1,23,456"},
		{"1234567.5", 2, "₹12,34,567.50"},
		{"12345678", 0, "₹1,23,45,678"},
		{"900.4", 2, "₹900.40"},
		{"-4500", 0, "-₹4,500"},
	}

	for _, tc := range cases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, billing.FormatINR(d(tc.amount), tc.digits))
		})
	}
}
