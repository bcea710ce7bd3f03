package pos

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cucikilat/pos/internal/api"
	"github.com/cucikilat/pos/internal/order"
)

var (
	// ErrNoCustomer is returned when checkout runs without a selected
	// customer. No network call was made.
	ErrNoCustomer = errors.New("please select a customer")

	// ErrEmptyCart is returned when checkout runs on an empty cart. No
	// network call was made.
	ErrEmptyCart = errors.New("cart is empty")
)

// Engine converts a cart into a submitted transaction.
type Engine struct {
	gw      api.Gateway
	cart    *Cart
	tracker *order.Tracker
}

func NewEngine(gw api.Gateway, cart *Cart, tracker *order.Tracker) *Engine {
	return &Engine{gw: gw, cart: cart, tracker: tracker}
}

func (e *Engine) Cart() *Cart { return e.cart }

type checkoutItem struct {
	ServiceID string `json:"service_id"`
	Quantity  int    `json:"quantity"`
}

type checkoutRequest struct {
	CustomerID    string              `json:"customer_id"`
	PaymentMethod order.PaymentMethod `json:"payment_method"`
	Items         []checkoutItem      `json:"items"`
}

// ProcessPayment submits the cart as a transaction. On success the created
// transaction (status "received", one progress entry) is prepended to the
// tracker and the cart resets. On failure the cart is left untouched so the
// cashier can retry.
func (e *Engine) ProcessPayment(ctx context.Context) (*order.Transaction, error) {
	if e.cart.CustomerID() == "" {
		return nil, ErrNoCustomer
	}

	if e.cart.Empty() {
		return nil, ErrEmptyCart
	}

	lines := e.cart.Lines()

	req := checkoutRequest{
		CustomerID:    e.cart.CustomerID(),
		PaymentMethod: e.cart.PaymentMethod(),
		Items:         make([]checkoutItem, len(lines)),
	}

	for i, l := range lines {
		req.Items[i] = checkoutItem{ServiceID: l.ServiceID, Quantity: l.Quantity}
	}

	var raw json.RawMessage
	if err := e.gw.Post(ctx, "/transactions", req, &raw); err != nil {
		return nil, err
	}

	tx, err := order.DecodeTransaction(raw)
	if err != nil {
		return nil, err
	}

	e.tracker.Prepend(tx)
	e.cart.Reset()

	return tx, nil
}
