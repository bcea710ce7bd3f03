package mockapi

import (
	"net/http"
	"time"

	"github.com/cucikilat/pos/internal/order"
)

type reportRow struct {
	ID            string              `json:"id"`
	TransactionNo string              `json:"transaction_no"`
	Date          time.Time           `json:"date"`
	CustomerName  string              `json:"customer_name"`
	Total         int64               `json:"total"`
	PaymentMethod order.PaymentMethod `json:"payment_method"`
	Status        order.Status        `json:"status"`
}

type reportSummary struct {
	TotalRevenue      int64 `json:"total_revenue"`
	TotalTransactions int   `json:"total_transactions"`
	TotalCompleted    int   `json:"total_completed"`
	TotalCancelled    int   `json:"total_cancelled"`
}

// parseRange reads start_date/end_date query params. The range is inclusive
// on both ends; the end date covers its whole day.
func parseRange(r *http.Request) (time.Time, time.Time, bool) {
	start, err := time.ParseInLocation(time.DateOnly, r.URL.Query().Get("start_date"), time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	end, err := time.ParseInLocation(time.DateOnly, r.URL.Query().Get("end_date"), time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	return start, end.Add(24*time.Hour - time.Nanosecond), true
}

func (s *Server) inRange(start, end time.Time) []*transaction {
	var out []*transaction

	for _, tx := range s.transactions {
		if !tx.CreatedAt.Before(start) && !tx.CreatedAt.After(end) {
			out = append(out, tx)
		}
	}

	return out
}

func (s *Server) handleReportFinancial(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseRange(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "start_date and end_date are required (YYYY-MM-DD)")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]reportRow, 0)

	for _, tx := range s.inRange(start, end) {
		rows = append(rows, reportRow{
			ID:            tx.ID,
			TransactionNo: tx.TransactionNo,
			Date:          tx.CreatedAt,
			CustomerName:  tx.Customer.Name,
			Total:         tx.TotalAmount,
			PaymentMethod: tx.PaymentMethod,
			Status:        tx.CurrentStatus,
		})
	}

	writeData(w, http.StatusOK, rows)
}

func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseRange(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "start_date and end_date are required (YYYY-MM-DD)")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var sum reportSummary

	for _, tx := range s.inRange(start, end) {
		sum.TotalTransactions++

		switch tx.CurrentStatus {
		case order.StatusCancelled:
			sum.TotalCancelled++
		case order.StatusCompleted:
			sum.TotalCompleted++
			sum.TotalRevenue += tx.TotalAmount
		default:
			sum.TotalRevenue += tx.TotalAmount
		}
	}

	writeData(w, http.StatusOK, sum)
}
