// Package pos is the cart and checkout engine. Cart mutation is synchronous
// and local; the only network call is the checkout submission itself.
package pos

import (
	"sync"

	"github.com/cucikilat/pos/internal/catalog"
	"github.com/cucikilat/pos/internal/order"
)

// Line is one service entry pending checkout. Subtotal always equals
// price times quantity; it is recomputed on every mutation.
type Line struct {
	ServiceID string
	Name      string
	Price     int64
	Unit      string
	Quantity  int
	Subtotal  int64
}

// Cart is the pending order being built at the counter. One line per
// distinct service.
type Cart struct {
	mu sync.Mutex

	customerID string
	lines      []Line
	payment    order.PaymentMethod
}

func NewCart() *Cart {
	return &Cart{payment: order.PaymentCash}
}

// SelectCustomer stores the active customer, overwriting any prior
// selection.
func (c *Cart) SelectCustomer(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.customerID = id
}

func (c *Cart) CustomerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.customerID
}

// SetPaymentMethod records how the customer will pay.
func (c *Cart) SetPaymentMethod(m order.PaymentMethod) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.payment = m
}

func (c *Cart) PaymentMethod() order.PaymentMethod {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.payment
}

// Add puts quantity units of the service in the cart. A non-positive
// quantity is a no-op. If the service already has a line, its quantity is
// incremented.
func (c *Cart) Add(svc catalog.Service, quantity int) {
	if quantity <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ServiceID == svc.ID {
			c.lines[i].Quantity += quantity
			c.lines[i].Subtotal = int64(c.lines[i].Quantity) * c.lines[i].Price

			return
		}
	}

	c.lines = append(c.lines, Line{
		ServiceID: svc.ID,
		Name:      svc.Name,
		Price:     svc.Price,
		Unit:      svc.Unit,
		Quantity:  quantity,
		Subtotal:  int64(quantity) * svc.Price,
	})
}

// UpdateQuantity sets a line's quantity. Zero or less removes the line.
func (c *Cart) UpdateQuantity(serviceID string, quantity int) {
	if quantity <= 0 {
		c.Remove(serviceID)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ServiceID == serviceID {
			c.lines[i].Quantity = quantity
			c.lines[i].Subtotal = int64(quantity) * c.lines[i].Price

			return
		}
	}
}

// Remove filters the line out of the cart.
func (c *Cart) Remove(serviceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.lines[:0]

	for _, l := range c.lines {
		if l.ServiceID != serviceID {
			kept = append(kept, l)
		}
	}

	c.lines = kept
}

// Lines returns a snapshot of the cart contents.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)

	return out
}

func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.lines) == 0
}

// TotalAmount is the sum of all line subtotals, 0 for an empty cart.
func (c *Cart) TotalAmount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total int64
	for _, l := range c.lines {
		total += l.Subtotal
	}

	return total
}

// Reset returns the cart to its empty initial state: no lines, no customer,
// payment method back to cash.
func (c *Cart) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = nil
	c.customerID = ""
	c.payment = order.PaymentCash
}
