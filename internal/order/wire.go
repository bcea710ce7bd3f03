package order

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cucikilat/pos/internal/catalog"
)

// wireTransaction is the backend's transaction shape. Decoding is strict:
// one defined schema per endpoint, and a mismatch surfaces as an error
// instead of silently falling back through field-name variants.
type wireTransaction struct {
	ID             string            `json:"id"`
	TransactionNo  string            `json:"transaction_no"`
	CustomerID     string            `json:"customer_id"`
	Customer       catalog.Customer  `json:"customer"`
	Items          []Item            `json:"items"`
	TotalAmount    int64             `json:"total_amount"`
	PaymentMethod  PaymentMethod     `json:"payment_method"`
	CurrentStatus  Status            `json:"current_status"`
	Progress       []wireProgress    `json:"progress"`
	EstimatedDone  time.Time         `json:"estimated_done"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	CompletionType string            `json:"completion_type,omitempty"`
}

type wireProgress struct {
	Status    Status          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	CheckedBy string          `json:"checked_by"`
	Notes     string          `json:"notes,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

func (w *wireTransaction) toTransaction() (*Transaction, error) {
	if w.ID == "" {
		return nil, fmt.Errorf("transaction record missing id")
	}

	if !w.CurrentStatus.Valid() {
		return nil, fmt.Errorf("transaction %s: unknown status %q", w.ID, w.CurrentStatus)
	}

	if len(w.Progress) == 0 {
		return nil, fmt.Errorf("transaction %s: empty progress trail", w.ID)
	}

	progress := make([]ProgressEntry, len(w.Progress))
	for i, p := range w.Progress {
		progress[i] = ProgressEntry{
			Status:    p.Status,
			Timestamp: p.Timestamp,
			CheckedBy: p.CheckedBy,
			Notes:     p.Notes,
			Metadata:  p.Metadata,
		}
	}

	return &Transaction{
		ID:             w.ID,
		TransactionNo:  w.TransactionNo,
		CustomerID:     w.CustomerID,
		Customer:       w.Customer,
		Items:          w.Items,
		TotalAmount:    w.TotalAmount,
		PaymentMethod:  w.PaymentMethod,
		CurrentStatus:  w.CurrentStatus,
		Progress:       progress,
		EstimatedDone:  w.EstimatedDone,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
		CompletedAt:    w.CompletedAt,
		CompletionType: w.CompletionType,
	}, nil
}

// DecodeTransaction converts one wire record.
func DecodeTransaction(raw json.RawMessage) (*Transaction, error) {
	var w wireTransaction
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decoding transaction: %w", err)
	}

	return w.toTransaction()
}
