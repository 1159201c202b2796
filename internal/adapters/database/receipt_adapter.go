package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/domain/repositories"
	"github.com/aarogya/billing-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/aarogya/billing-backend/pkg/errors"
)

var receiptColumns = []interface{}{
	"id", "receipt_number", "bill_id", "bill_number", "receipt_type",
	"amount", "previous_status", "new_status", "billing_snapshot",
	"remarks", "created_by", "created_at",
}

// ReceiptAdapter implements the ReceiptRepository interface. The receipts
// table is append-only; this adapter exposes no update or delete.
type ReceiptAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewReceiptAdapter creates a new receipt adapter
func NewReceiptAdapter(client *postgres.Client) repositories.ReceiptRepository {
	return &ReceiptAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create appends a new receipt
func (a *ReceiptAdapter) Create(ctx context.Context, receipt *entities.Receipt) error {
	record := goqu.Record{
		"id":               receipt.ID,
		"receipt_number":   receipt.ReceiptNumber,
		"bill_id":          receipt.BillID,
		"bill_number":      receipt.BillNumber,
		"receipt_type":     receipt.Type,
		"amount":           receipt.Amount,
		"previous_status":  receipt.PreviousStatus,
		"new_status":       receipt.NewStatus,
		"billing_snapshot": []byte(receipt.BillingSnapshot),
		"remarks":          receipt.Remarks,
		"created_by":       receipt.CreatedBy,
		"created_at":       receipt.CreatedAt,
	}

	query, args, err := a.db.Insert("receipts").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create receipt", err)
	}

	return nil
}

// GetByNumber retrieves a receipt by receipt number
func (a *ReceiptAdapter) GetByNumber(ctx context.Context, receiptNumber string) (*entities.Receipt, error) {
	query, args, err := a.db.Select(receiptColumns...).From("receipts").
		Where(goqu.Ex{"receipt_number": receiptNumber}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	receipt, err := scanReceipt(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("receipt %s not found", receiptNumber))
	}
	if err != nil {
		return nil, err
	}

	return receipt, nil
}

// ListByBill retrieves all receipts for a bill, oldest first
func (a *ReceiptAdapter) ListByBill(ctx context.Context, billID string) ([]*entities.Receipt, error) {
	query, args, err := a.db.Select(receiptColumns...).From("receipts").
		Where(goqu.Ex{"bill_id": billID}).
		Order(goqu.I("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryReceipts(ctx, query, args)
}

// List retrieves receipts matching the filter, newest first, with the total
// match count for pagination
func (a *ReceiptAdapter) List(ctx context.Context, filter repositories.ReceiptFilter) ([]*entities.Receipt, int, error) {
	base := a.db.From("receipts")

	if filter.Type != "" {
		base = base.Where(goqu.Ex{"receipt_type": filter.Type})
	}

	if filter.BillNumber != "" {
		base = base.Where(goqu.Ex{"bill_number": filter.BillNumber})
	}

	if filter.StartDate != nil {
		base = base.Where(goqu.C("created_at").Gte(*filter.StartDate))
	}

	if filter.EndDate != nil {
		base = base.Where(goqu.C("created_at").Lte(*filter.EndDate))
	}

	countQuery, countArgs, err := base.Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var total int
	if err := a.client.DB().QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to count receipts", err)
	}

	ds := base.Select(receiptColumns...).Order(goqu.I("created_at").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
		if filter.Page > 1 {
			ds = ds.Offset(uint((filter.Page - 1) * filter.Limit))
		}
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build list query", err)
	}

	receipts, err := a.queryReceipts(ctx, query, args)
	if err != nil {
		return nil, 0, err
	}

	return receipts, total, nil
}

func (a *ReceiptAdapter) queryReceipts(ctx context.Context, query string, args []interface{}) ([]*entities.Receipt, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list receipts", err)
	}
	defer rows.Close()

	var receipts []*entities.Receipt
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating receipts", err)
	}

	return receipts, nil
}

func scanReceipt(row rowScanner) (*entities.Receipt, error) {
	receipt := &entities.Receipt{}
	var snapshot []byte
	var remarks sql.NullString

	err := row.Scan(
		&receipt.ID,
		&receipt.ReceiptNumber,
		&receipt.BillID,
		&receipt.BillNumber,
		&receipt.Type,
		&receipt.Amount,
		&receipt.PreviousStatus,
		&receipt.NewStatus,
		&snapshot,
		&remarks,
		&receipt.CreatedBy,
		&receipt.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to scan receipt", err)
	}

	receipt.BillingSnapshot = snapshot
	receipt.Remarks = remarks.String

	return receipt, nil
}
