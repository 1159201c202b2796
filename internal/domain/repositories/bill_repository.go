package repositories

import (
	"context"
	"time"

	"github.com/aarogya/billing-backend/internal/domain/entities"
)

// BillRepository defines the interface for bill data operations. Bills are
// never deleted; cancellation is an Update with a status change.
type BillRepository interface {
	// Create persists a new bill with its items
	Create(ctx context.Context, bill *entities.Bill) error

	// GetByID retrieves a bill (with items) by ID
	GetByID(ctx context.Context, id string) (*entities.Bill, error)

	// GetByNumber retrieves a bill (with items) by bill number
	GetByNumber(ctx context.Context, billNumber string) (*entities.Bill, error)

	// Update rewrites the bill header and replaces its items
	Update(ctx context.Context, bill *entities.Bill) error

	// List retrieves bills (with items) matching the filter
	List(ctx context.Context, filter BillFilter) ([]*entities.Bill, error)
}

// BillFilter defines filters for listing bills
type BillFilter struct {
	PatientID string
	Status    entities.BillStatus
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
