package pos_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cucikilat/pos/internal/catalog"
	"github.com/cucikilat/pos/internal/order"
	"github.com/cucikilat/pos/internal/pos"
)

var (
	cuciKering = catalog.Service{ID: "s1", Name: "Cuci Kering", Price: 5000, Unit: "kg", Active: true}
	setrika    = catalog.Service{ID: "s2", Name: "Setrika", Price: 3500, Unit: "kg", Active: true}
)

func TestCart_Add_MergesLinesPerService(t *testing.T) {
	cart := pos.NewCart()

	cart.Add(cuciKering, 2)
	cart.Add(setrika, 1)
	cart.Add(cuciKering, 3)

	lines := cart.Lines()
	require.Len(t, lines, 2, "one line per distinct service")

	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, int64(25000), lines[0].Subtotal)
	assert.Equal(t, 1, lines[1].Quantity)
	assert.Equal(t, int64(28500), cart.TotalAmount())
}

func TestCart_Add_IgnoresNonPositiveQuantity(t *testing.T) {
	cart := pos.NewCart()

	cart.Add(cuciKering, 0)
	cart.Add(cuciKering, -3)

	assert.True(t, cart.Empty())
	assert.Zero(t, cart.TotalAmount())
}

func TestCart_UpdateQuantity(t *testing.T) {
	type testCase struct {
		name      string
		quantity  int
		wantLines int
		wantTotal int64
	}

	tests := []testCase{
		{name: "Positive quantity replaces and recomputes", quantity: 4, wantLines: 1, wantTotal: 20000},
		{name: "Zero removes the line", quantity: 0, wantLines: 0, wantTotal: 0},
		{name: "Negative removes the line", quantity: -1, wantLines: 0, wantTotal: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := pos.NewCart()
			cart.Add(cuciKering, 2)

			cart.UpdateQuantity(cuciKering.ID, tt.quantity)

			assert.Len(t, cart.Lines(), tt.wantLines)
			assert.Equal(t, tt.wantTotal, cart.TotalAmount())
		})
	}
}

func TestCart_Remove(t *testing.T) {
	cart := pos.NewCart()
	cart.Add(cuciKering, 2)
	cart.Add(setrika, 1)

	cart.Remove(cuciKering.ID)

	lines := cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, setrika.ID, lines[0].ServiceID)

	// Removing an absent service is a no-op.
	cart.Remove("missing")
	assert.Len(t, cart.Lines(), 1)
}

func TestCart_TotalAmount_AlwaysSumOfSubtotals(t *testing.T) {
	cart := pos.NewCart()
	assert.Zero(t, cart.TotalAmount(), "empty cart totals zero")

	cart.Add(cuciKering, 2)
	cart.Add(setrika, 3)
	cart.UpdateQuantity(setrika.ID, 1)
	cart.Remove(cuciKering.ID)

	var sum int64
	for _, l := range cart.Lines() {
		sum += l.Subtotal
	}

	assert.Equal(t, sum, cart.TotalAmount())
	assert.Equal(t, int64(3500), sum)
}

func TestCart_Reset(t *testing.T) {
	cart := pos.NewCart()
	cart.SelectCustomer("c1")
	cart.SetPaymentMethod(order.PaymentQRIS)
	cart.Add(cuciKering, 2)

	cart.Reset()

	assert.True(t, cart.Empty())
	assert.Empty(t, cart.CustomerID())
	assert.Equal(t, order.PaymentCash, cart.PaymentMethod(), "payment method returns to cash")
}
