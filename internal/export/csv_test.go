package export_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/export"
)

func TestReceiptsCSV(t *testing.T) {
	t.Run("writes the fixed header even with no rows", func(t *testing.T) {
		data, err := export.ReceiptsCSV(nil)

		require.NoError(t, err)
		assert.Equal(t, "Receipt Number,Type,Amount,Date,Created By,Remarks\n", string(data))
	})

	t.Run("writes one row per receipt with two-decimal amounts", func(t *testing.T) {
		created := time.Date(2026, 8, 14, 10, 30, 0, 0, time.UTC)
		receipts := []*entities.Receipt{
			{
				ReceiptNumber: "RCP-20260814-AB12CD",
				Type:          entities.ReceiptTypePayment,
				Amount:        decimal.NewFromFloat(1499.5),
				CreatedAt:     created,
				CreatedBy:     "reception",
				Remarks:       "second instalment",
			},
		}

		data, err := export.ReceiptsCSV(receipts)

		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "RCP-20260814-AB12CD,payment,1499.50,2026-08-14 10:30:00,reception,second instalment", lines[1])
	})

	t.Run("quotes fields containing commas", func(t *testing.T) {
		receipts := []*entities.Receipt{
			{
				ReceiptNumber: "RCP-1",
				Type:          entities.ReceiptTypeCreation,
				Amount:        decimal.NewFromInt(100),
				CreatedAt:     time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
				CreatedBy:     "desk",
				Remarks:       "ward 3, bed 12",
			},
		}

		data, err := export.ReceiptsCSV(receipts)

		require.NoError(t, err)
		assert.Contains(t, string(data), `"ward 3, bed 12"`)
	})
}
