package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/domain/repositories"
	"github.com/aarogya/billing-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/aarogya/billing-backend/pkg/errors"
)

var billColumns = []interface{}{
	"id", "bill_number", "patient_id", "doctor_name", "bill_date",
	"discount_type", "discount_value", "payment_method", "paid_amount",
	"subtotal", "total_tax", "grand_total", "due_amount",
	"status", "remarks", "created_by", "created_at", "updated_at",
}

// BillAdapter implements the BillRepository interface
type BillAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewBillAdapter creates a new bill adapter
func NewBillAdapter(client *postgres.Client) repositories.BillRepository {
	return &BillAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create persists a new bill together with its items in one transaction
func (a *BillAdapter) Create(ctx context.Context, bill *entities.Bill) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query, args, err := a.db.Insert("bills").Rows(a.billRecord(bill)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create bill", err)
	}

	if err := a.insertItems(ctx, tx, bill); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit bill", err)
	}

	return nil
}

// GetByID retrieves a bill with its items by ID
func (a *BillAdapter) GetByID(ctx context.Context, id string) (*entities.Bill, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, id)
}

// GetByNumber retrieves a bill with its items by bill number
func (a *BillAdapter) GetByNumber(ctx context.Context, billNumber string) (*entities.Bill, error) {
	return a.getOne(ctx, goqu.Ex{"bill_number": billNumber}, billNumber)
}

// Update rewrites the bill header and replaces its items in one transaction
func (a *BillAdapter) Update(ctx context.Context, bill *entities.Bill) error {
	bill.UpdatedAt = time.Now()

	record := a.billRecord(bill)
	delete(record, "id")
	delete(record, "bill_number")
	delete(record, "created_at")
	delete(record, "created_by")

	query, args, err := a.db.Update("bills").
		Set(record).
		Where(goqu.Ex{"id": bill.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update bill", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("bill with id %s not found", bill.ID))
	}

	deleteQuery, deleteArgs, err := a.db.Delete("billing_items").
		Where(goqu.Ex{"bill_id": bill.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete items query", err)
	}

	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return apperrors.NewInternalError("failed to replace bill items", err)
	}

	if err := a.insertItems(ctx, tx, bill); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit bill update", err)
	}

	return nil
}

// List retrieves bills with filters, newest first, items included
func (a *BillAdapter) List(ctx context.Context, filter repositories.BillFilter) ([]*entities.Bill, error) {
	ds := a.db.Select(billColumns...).From("bills")

	if filter.PatientID != "" {
		ds = ds.Where(goqu.Ex{"patient_id": filter.PatientID})
	}

	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": filter.Status})
	}

	if filter.From != nil {
		ds = ds.Where(goqu.C("bill_date").Gte(*filter.From))
	}

	if filter.To != nil {
		ds = ds.Where(goqu.C("bill_date").Lte(*filter.To))
	}

	ds = ds.Order(goqu.I("bill_date").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list bills", err)
	}
	defer rows.Close()

	var bills []*entities.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating bills", err)
	}

	if err := a.attachItems(ctx, bills); err != nil {
		return nil, err
	}

	return bills, nil
}

func (a *BillAdapter) getOne(ctx context.Context, where goqu.Ex, key string) (*entities.Bill, error) {
	query, args, err := a.db.Select(billColumns...).From("bills").Where(where).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	bill, err := scanBill(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("bill %s not found", key))
	}
	if err != nil {
		return nil, err
	}

	if err := a.attachItems(ctx, []*entities.Bill{bill}); err != nil {
		return nil, err
	}

	return bill, nil
}

func (a *BillAdapter) billRecord(bill *entities.Bill) goqu.Record {
	return goqu.Record{
		"id":             bill.ID,
		"bill_number":    bill.BillNumber,
		"patient_id":     bill.PatientID,
		"doctor_name":    bill.DoctorName,
		"bill_date":      bill.Date,
		"discount_type":  bill.Discount.Type,
		"discount_value": bill.Discount.Value,
		"payment_method": bill.Payment.Method,
		"paid_amount":    bill.Payment.Paid,
		"subtotal":       bill.Totals.Subtotal,
		"total_tax":      bill.Totals.TotalTax,
		"grand_total":    bill.Totals.GrandTotal,
		"due_amount":     bill.Totals.DueAmount,
		"status":         bill.Status,
		"remarks":        bill.Remarks,
		"created_by":     bill.CreatedBy,
		"created_at":     bill.CreatedAt,
		"updated_at":     bill.UpdatedAt,
	}
}

func (a *BillAdapter) insertItems(ctx context.Context, tx *sql.Tx, bill *entities.Bill) error {
	if len(bill.Items) == 0 {
		return nil
	}

	records := make([]interface{}, 0, len(bill.Items))
	for _, item := range bill.Items {
		records = append(records, goqu.Record{
			"id":       item.ID,
			"bill_id":  bill.ID,
			"name":     item.Name,
			"code":     item.Code,
			"category": item.Category,
			"price":    item.Price,
			"quantity": item.Quantity,
			"tax":      item.Tax,
			"total":    item.Total,
		})
	}

	query, args, err := a.db.Insert("billing_items").Rows(records...).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert items query", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create bill items", err)
	}

	return nil
}

// attachItems loads billing items for the given bills in one query
func (a *BillAdapter) attachItems(ctx context.Context, bills []*entities.Bill) error {
	if len(bills) == 0 {
		return nil
	}

	index := make(map[string]*entities.Bill, len(bills))
	ids := make([]string, 0, len(bills))
	for _, bill := range bills {
		bill.Items = []entities.BillingItem{}
		index[bill.ID] = bill
		ids = append(ids, bill.ID)
	}

	query, args, err := a.db.Select(
		"id", "bill_id", "name", "code", "category",
		"price", "quantity", "tax", "total",
	).From("billing_items").
		Where(goqu.C("bill_id").In(ids)).
		Order(goqu.I("bill_id").Asc(), goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build items query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to load bill items", err)
	}
	defer rows.Close()

	for rows.Next() {
		item := entities.BillingItem{}
		err := rows.Scan(
			&item.ID,
			&item.BillID,
			&item.Name,
			&item.Code,
			&item.Category,
			&item.Price,
			&item.Quantity,
			&item.Tax,
			&item.Total,
		)
		if err != nil {
			return apperrors.NewInternalError("failed to scan bill item", err)
		}
		if bill, ok := index[item.BillID]; ok {
			bill.Items = append(bill.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return apperrors.NewInternalError("error iterating bill items", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBill(row rowScanner) (*entities.Bill, error) {
	bill := &entities.Bill{}
	var doctorName, remarks sql.NullString

	err := row.Scan(
		&bill.ID,
		&bill.BillNumber,
		&bill.PatientID,
		&doctorName,
		&bill.Date,
		&bill.Discount.Type,
		&bill.Discount.Value,
		&bill.Payment.Method,
		&bill.Payment.Paid,
		&bill.Totals.Subtotal,
		&bill.Totals.TotalTax,
		&bill.Totals.GrandTotal,
		&bill.Totals.DueAmount,
		&bill.Status,
		&remarks,
		&bill.CreatedBy,
		&bill.CreatedAt,
		&bill.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to scan bill", err)
	}

	bill.DoctorName = doctorName.String
	bill.Remarks = remarks.String

	return bill, nil
}
