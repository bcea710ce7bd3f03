// Package order owns the transaction list and the processing-stage state
// machine every laundry order walks through between drop-off and pickup.
package order

import (
	"encoding/json"
	"time"

	"github.com/cucikilat/pos/internal/catalog"
)

// Status is one stage of the order lifecycle. The sequence is linear with
// two terminal states; moving backwards is rejected by the backend, not
// validated here.
type Status string

const (
	StatusReceived  Status = "received"
	StatusCheck     Status = "check"
	StatusWashing   Status = "washing"
	StatusIroned    Status = "ironed"
	StatusPackaging Status = "packaging"
	StatusDone      Status = "done"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Stages lists the non-terminal pipeline in processing order.
var Stages = []Status{
	StatusReceived,
	StatusCheck,
	StatusWashing,
	StatusIroned,
	StatusPackaging,
	StatusDone,
}

// Next returns the following stage, or false when s is terminal or the last
// pipeline stage (done completes out-of-band as completed or cancelled).
func (s Status) Next() (Status, bool) {
	for i, st := range Stages {
		if st == s && i+1 < len(Stages) {
			return Stages[i+1], true
		}
	}

	return "", false
}

// Terminal reports whether no further stage transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) Valid() bool {
	switch s {
	case StatusReceived, StatusCheck, StatusWashing, StatusIroned,
		StatusPackaging, StatusDone, StatusCompleted, StatusCancelled:
		return true
	}

	return false
}

// PaymentMethod is how the customer paid at checkout.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentQRIS     PaymentMethod = "qris"
)

// PaymentMethods lists the accepted methods in display order.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentTransfer, PaymentQRIS}

// Item is one service line frozen into a transaction at checkout.
type Item struct {
	ServiceID string `json:"service_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Unit      string `json:"unit"`
	Quantity  int    `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

// ProgressEntry is one immutable audit record of a stage transition.
// Metadata carries stage-specific findings (pocket contents, stains, damage)
// as an opaque payload that is stored and forwarded, never parsed.
type ProgressEntry struct {
	Status    Status          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	CheckedBy string          `json:"checked_by"`
	Notes     string          `json:"notes,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// Transaction is a submitted order. Items and TotalAmount are frozen at
// checkout; the only mutation afterwards is appending progress entries and
// advancing CurrentStatus.
type Transaction struct {
	ID             string
	TransactionNo  string
	CustomerID     string
	Customer       catalog.Customer
	Items          []Item
	TotalAmount    int64
	PaymentMethod  PaymentMethod
	CurrentStatus  Status
	Progress       []ProgressEntry
	EstimatedDone  time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
	CompletionType string
}

// LatestProgress returns the newest audit entry. The progress trail is
// non-empty for any transaction that exists.
func (t *Transaction) LatestProgress() ProgressEntry {
	if len(t.Progress) == 0 {
		return ProgressEntry{}
	}

	return t.Progress[len(t.Progress)-1]
}
