package pos_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cucikilat/pos/internal/api"
	"github.com/cucikilat/pos/internal/order"
	"github.com/cucikilat/pos/internal/pos"
)

func wireTransactionJSON(t *testing.T, id string, status order.Status) json.RawMessage {
	t.Helper()

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	raw, err := json.Marshal(map[string]any{
		"id":             id,
		"transaction_no": "TRX-20260830-0001",
		"customer_id":    "c1",
		"customer":       map[string]any{"id": "c1", "name": "Siti", "phone": "0811"},
		"items": []map[string]any{
			{"service_id": "s1", "name": "Cuci Kering", "price": 5000, "unit": "kg", "quantity": 2, "subtotal": 10000},
		},
		"total_amount":   10000,
		"payment_method": "cash",
		"current_status": string(status),
		"progress": []map[string]any{
			{"status": string(status), "timestamp": now, "checked_by": "admin"},
		},
		"estimated_done": now.Add(48 * time.Hour),
		"created_at":     now,
		"updated_at":     now,
	})
	require.NoError(t, err)

	return raw
}

func TestEngine_ProcessPayment_RequiresCustomer(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := api.NewMockGateway(ctrl)

	cart := pos.NewCart()
	cart.Add(cuciKering, 2)

	engine := pos.NewEngine(gw, cart, order.NewTracker(gw, nil))

	tx, err := engine.ProcessPayment(context.Background())

	assert.ErrorIs(t, err, pos.ErrNoCustomer)
	assert.Nil(t, tx)
	assert.Len(t, cart.Lines(), 1, "cart untouched, no network call")
}

func TestEngine_ProcessPayment_RequiresNonEmptyCart(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := api.NewMockGateway(ctrl)

	cart := pos.NewCart()
	cart.SelectCustomer("c1")

	engine := pos.NewEngine(gw, cart, order.NewTracker(gw, nil))

	_, err := engine.ProcessPayment(context.Background())

	assert.ErrorIs(t, err, pos.ErrEmptyCart)
}

func TestEngine_ProcessPayment_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := api.NewMockGateway(ctrl)

	cart := pos.NewCart()
	cart.SelectCustomer("c1")
	cart.SetPaymentMethod(order.PaymentTransfer)
	cart.Add(cuciKering, 2)
	cart.Add(setrika, 1)

	tracker := order.NewTracker(gw, nil)
	engine := pos.NewEngine(gw, cart, tracker)

	gw.EXPECT().
		Post(gomock.Any(), "/transactions", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, body, out any) error {
			payload, err := json.Marshal(body)
			require.NoError(t, err)

			var req struct {
				CustomerID    string `json:"customer_id"`
				PaymentMethod string `json:"payment_method"`
				Items         []struct {
					ServiceID string `json:"service_id"`
					Quantity  int    `json:"quantity"`
				} `json:"items"`
			}
			require.NoError(t, json.Unmarshal(payload, &req))

			assert.Equal(t, "c1", req.CustomerID)
			assert.Equal(t, "transfer", req.PaymentMethod)
			require.Len(t, req.Items, 2)
			assert.Equal(t, "s1", req.Items[0].ServiceID)
			assert.Equal(t, 2, req.Items[0].Quantity)

			*out.(*json.RawMessage) = wireTransactionJSON(t, "tx-1", order.StatusReceived)

			return nil
		})

	tx, err := engine.ProcessPayment(context.Background())

	require.NoError(t, err)
	assert.Equal(t, order.StatusReceived, tx.CurrentStatus)
	require.Len(t, tx.Progress, 1)
	assert.Equal(t, order.StatusReceived, tx.Progress[0].Status)

	txs := tracker.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, "tx-1", txs[0].ID, "new transaction heads the tracker list")

	assert.True(t, cart.Empty(), "cart resets after success")
	assert.Empty(t, cart.CustomerID())
	assert.Equal(t, order.PaymentCash, cart.PaymentMethod())
}

func TestEngine_ProcessPayment_FailureLeavesCartIntact(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := api.NewMockGateway(ctrl)

	cart := pos.NewCart()
	cart.SelectCustomer("c1")
	cart.Add(cuciKering, 2)

	tracker := order.NewTracker(gw, nil)
	engine := pos.NewEngine(gw, cart, tracker)

	gw.EXPECT().
		Post(gomock.Any(), "/transactions", gomock.Any(), gomock.Any()).
		Return(errors.New("backend down"))

	_, err := engine.ProcessPayment(context.Background())

	require.Error(t, err)
	assert.Len(t, cart.Lines(), 1, "cashier can retry without re-entering the order")
	assert.Equal(t, "c1", cart.CustomerID())
	assert.Empty(t, tracker.Transactions())
}

func TestEngine_ProcessPayment_BadResponseIsAnError(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := api.NewMockGateway(ctrl)

	cart := pos.NewCart()
	cart.SelectCustomer("c1")
	cart.Add(cuciKering, 2)

	engine := pos.NewEngine(gw, cart, order.NewTracker(gw, nil))

	gw.EXPECT().
		Post(gomock.Any(), "/transactions", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _, out any) error {
			*out.(*json.RawMessage) = json.RawMessage(`{"transaction_no":"TRX-1"}`)
			return nil
		})

	_, err := engine.ProcessPayment(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing id")
	assert.False(t, cart.Empty(), "cart survives a malformed response")
}
