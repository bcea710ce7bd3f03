package order_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cucikilat/pos/internal/order"
)

func TestStatus_Next(t *testing.T) {
	type testCase struct {
		status   order.Status
		wantNext order.Status
		wantOK   bool
	}

	tests := []testCase{
		{order.StatusReceived, order.StatusCheck, true},
		{order.StatusCheck, order.StatusWashing, true},
		{order.StatusWashing, order.StatusIroned, true},
		{order.StatusIroned, order.StatusPackaging, true},
		{order.StatusPackaging, order.StatusDone, true},
		{order.StatusDone, "", false},
		{order.StatusCompleted, "", false},
		{order.StatusCancelled, "", false},
		{"bogus", "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			next, ok := tt.status.Next()

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantNext, next)
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	for _, s := range order.Stages {
		assert.False(t, s.Terminal(), string(s))
	}

	assert.True(t, order.StatusCompleted.Terminal())
	assert.True(t, order.StatusCancelled.Terminal())
}

func TestStatus_Valid(t *testing.T) {
	assert.True(t, order.StatusWashing.Valid())
	assert.True(t, order.StatusCancelled.Valid())
	assert.False(t, order.Status("drying").Valid())
	assert.False(t, order.Status("").Valid())
}

func TestDecodeTransaction(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	valid := map[string]any{
		"id":             "tx-1",
		"transaction_no": "TRX-20260830-0001",
		"customer_id":    "c1",
		"customer":       map[string]any{"id": "c1", "name": "Siti", "phone": "0811"},
		"items": []map[string]any{
			{"service_id": "s1", "name": "Cuci Kering", "price": 5000, "unit": "kg", "quantity": 2, "subtotal": 10000},
		},
		"total_amount":   10000,
		"payment_method": "cash",
		"current_status": "washing",
		"progress": []map[string]any{
			{"status": "received", "timestamp": now, "checked_by": "admin"},
			{"status": "check", "timestamp": now.Add(time.Hour), "checked_by": "admin", "metadata": map[string]any{"pockets": "empty"}},
			{"status": "washing", "timestamp": now.Add(2 * time.Hour), "checked_by": "admin"},
		},
		"estimated_done": now.Add(48 * time.Hour),
		"created_at":     now,
		"updated_at":     now.Add(2 * time.Hour),
	}

	type testCase struct {
		name    string
		mutate  func(m map[string]any)
		wantErr string
	}

	tests := []testCase{
		{
			name:   "Valid record decodes",
			mutate: func(m map[string]any) {},
		},
		{
			name:    "Missing id is rejected",
			mutate:  func(m map[string]any) { delete(m, "id") },
			wantErr: "missing id",
		},
		{
			name:    "Unknown status is rejected",
			mutate:  func(m map[string]any) { m["current_status"] = "drying" },
			wantErr: "unknown status",
		},
		{
			name:    "Empty progress trail is rejected",
			mutate:  func(m map[string]any) { m["progress"] = []any{} },
			wantErr: "empty progress trail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := make(map[string]any, len(valid))
			for k, v := range valid {
				record[k] = v
			}

			tt.mutate(record)

			raw, err := json.Marshal(record)
			require.NoError(t, err)

			tx, err := order.DecodeTransaction(raw)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "tx-1", tx.ID)
			assert.Equal(t, order.StatusWashing, tx.CurrentStatus)
			assert.Equal(t, int64(10000), tx.TotalAmount)
			assert.Equal(t, "Siti", tx.Customer.Name)
			require.Len(t, tx.Progress, 3)
			assert.JSONEq(t, `{"pockets":"empty"}`, string(tx.Progress[1].Metadata), "metadata is stored opaque")
		})
	}
}

func TestTransaction_LatestProgress(t *testing.T) {
	tx := &order.Transaction{
		Progress: []order.ProgressEntry{
			{Status: order.StatusReceived},
			{Status: order.StatusCheck},
		},
	}

	assert.Equal(t, order.StatusCheck, tx.LatestProgress().Status)

	empty := &order.Transaction{}
	assert.Equal(t, order.ProgressEntry{}, empty.LatestProgress())
}
