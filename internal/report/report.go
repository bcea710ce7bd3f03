// Package report is a read-only view over historical transactions by date
// range.
package report

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/cucikilat/pos/internal/api"
	"github.com/cucikilat/pos/internal/order"
)

// Filter is an inclusive date range.
type Filter struct {
	Start time.Time
	End   time.Time
}

// Today returns a filter covering the current day, the aggregator's default.
func Today() Filter {
	now := time.Now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	return Filter{Start: day, End: day}
}

// Row is one transaction summarized for reporting.
type Row struct {
	ID            string              `json:"id"`
	TransactionNo string              `json:"transaction_no"`
	Date          time.Time           `json:"date"`
	CustomerName  string              `json:"customer_name"`
	Total         int64               `json:"total"`
	PaymentMethod order.PaymentMethod `json:"payment_method"`
	Status        order.Status        `json:"status"`
}

// Summary is the financial rollup for the filtered range.
type Summary struct {
	TotalRevenue      int64 `json:"total_revenue"`
	TotalTransactions int   `json:"total_transactions"`
	TotalCompleted    int   `json:"total_completed"`
	TotalCancelled    int   `json:"total_cancelled"`
}

// Aggregator requests pre-filtered reports from the backend. Changing the
// filter always refetches; the two are never decoupled.
type Aggregator struct {
	gw api.Gateway

	mu      sync.Mutex
	filter  Filter
	rows    []Row
	summary Summary
	loading bool
	err     string
}

func NewAggregator(gw api.Gateway) *Aggregator {
	return &Aggregator{gw: gw, filter: Today()}
}

// SetFilter updates the date range and refetches in the same operation.
func (a *Aggregator) SetFilter(ctx context.Context, f Filter) error {
	a.mu.Lock()
	a.filter = f
	a.mu.Unlock()

	return a.Refresh(ctx)
}

// Refresh re-requests both reports for the current filter.
func (a *Aggregator) Refresh(ctx context.Context) error {
	a.mu.Lock()
	a.loading = true
	a.err = ""
	params := url.Values{
		"start_date": {a.filter.Start.Format(time.DateOnly)},
		"end_date":   {a.filter.End.Format(time.DateOnly)},
	}
	a.mu.Unlock()

	var rows []Row
	if err := a.gw.Get(ctx, "/reports/financial", params, &rows); err != nil {
		return a.fail(err)
	}

	var summary Summary
	if err := a.gw.Get(ctx, "/reports/summary", params, &summary); err != nil {
		return a.fail(err)
	}

	a.mu.Lock()
	a.rows = rows
	a.summary = summary
	a.loading = false
	a.mu.Unlock()

	return nil
}

func (a *Aggregator) Filter() Filter {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.filter
}

func (a *Aggregator) Rows() []Row {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Row, len(a.rows))
	copy(out, a.rows)

	return out
}

func (a *Aggregator) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.summary
}

func (a *Aggregator) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.loading
}

func (a *Aggregator) Err() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.err
}

func (a *Aggregator) fail(err error) error {
	a.mu.Lock()
	a.loading = false
	a.err = err.Error()
	a.mu.Unlock()

	return err
}
