package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// BillEventType represents the type of bill mutation event
type BillEventType string

const (
	BillEventTypeCreated   BillEventType = "bill_created"
	BillEventTypePayment   BillEventType = "bill_payment"
	BillEventTypeModified  BillEventType = "bill_modified"
	BillEventTypeCancelled BillEventType = "bill_cancelled"
)

// BillEvent is published on the event bus whenever a bill mutates, so cached
// report aggregates can be invalidated.
type BillEvent struct {
	ID            string                 `json:"id"`
	BillID        string                 `json:"bill_id"`
	BillNumber    string                 `json:"bill_number"`
	EventType     BillEventType          `json:"event_type"`
	Timestamp     time.Time              `json:"timestamp"`
	ChangedFields map[string]interface{} `json:"changed_fields,omitempty"`
}

// NewBillEvent creates a new bill event
func NewBillEvent(billID, billNumber string, eventType BillEventType, changedFields map[string]interface{}) *BillEvent {
	return &BillEvent{
		ID:            generateEventID(),
		BillID:        billID,
		BillNumber:    billNumber,
		EventType:     eventType,
		Timestamp:     time.Now(),
		ChangedFields: changedFields,
	}
}

func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
