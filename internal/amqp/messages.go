package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventClientCreated      EventType = "client.created"
	EventChargeRegistered   EventType = "charge.registered"
	EventAdvanceAdded       EventType = "charge.advance_added"
	EventChargeRemoved      EventType = "charge.removed"
	EventFeeRecorded        EventType = "fee.recorded"
	EventFeeAmended         EventType = "fee.amended"
	EventReceiptPrinted     EventType = "fee.receipt_printed"
	EventExpenseRecorded    EventType = "expense.recorded"
	EventExpenseToOffice    EventType = "expense.assigned_office"
	EventExpenseToClient    EventType = "expense.returned_client"
	EventExpenseDeleted     EventType = "expense.deleted"
	EventYearExportRequired EventType = "export.year"
)

// LedgerEvent announces a committed ledger write. It carries references only;
// consumers reload what they need from the store.
type LedgerEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	ClientID  int64     `json:"client_id,omitempty"`
	ExpenseID int64     `json:"expense_id,omitempty"`
	FeeID     int64     `json:"fee_id,omitempty"`
	Year      int       `json:"year,omitempty"`
	Month     int       `json:"month,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent stamps a fresh event id and time.
func NewLedgerEvent(typ EventType, clientID int64, year int) LedgerEvent {
	return LedgerEvent{
		ID:        uuid.NewString(),
		Type:      typ,
		ClientID:  clientID,
		Year:      year,
		Timestamp: time.Now().UTC(),
	}
}

// AffectsBalances reports whether the event changes a client's monthly roll-forward.
func (e LedgerEvent) AffectsBalances() bool {
	switch e.Type {
	case EventChargeRegistered, EventAdvanceAdded, EventChargeRemoved, EventYearExportRequired:
		return true
	}
	return false
}

func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.Type == "" {
		return nil, fmt.Errorf("ledger event %q without type", e.ID)
	}
	return &e, nil
}
