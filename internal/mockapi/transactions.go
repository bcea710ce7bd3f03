package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cucikilat/pos/internal/catalog"
	"github.com/cucikilat/pos/internal/order"
)

// estimatedTurnaround is how long a standard order takes end to end.
const estimatedTurnaround = 48 * time.Hour

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		out = append(out, tx.snapshot())
	}
	s.mu.Unlock()

	writePage(w, out, len(out))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID    string              `json:"customer_id"`
		PaymentMethod order.PaymentMethod `json:"payment_method"`
		Items         []struct {
			ServiceID string `json:"service_id"`
			Quantity  int    `json:"quantity"`
		} `json:"items"`
	}

	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	customer, ok := s.findCustomer(req.CustomerID)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "unknown customer")
		return
	}

	if len(req.Items) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "transaction needs at least one item")
		return
	}

	var (
		items []order.Item
		total int64
	)

	for _, it := range req.Items {
		svc, ok := s.findService(it.ServiceID)
		if !ok {
			writeError(w, http.StatusUnprocessableEntity, "unknown service "+it.ServiceID)
			return
		}

		if it.Quantity <= 0 {
			writeError(w, http.StatusUnprocessableEntity, "quantity must be positive")
			return
		}

		subtotal := svc.Price * int64(it.Quantity)
		total += subtotal

		items = append(items, order.Item{
			ServiceID: svc.ID,
			Name:      svc.Name,
			Price:     svc.Price,
			Unit:      svc.Unit,
			Quantity:  it.Quantity,
			Subtotal:  subtotal,
		})
	}

	now := time.Now()
	s.txSeq++

	tx := &transaction{
		ID:            uuid.NewString(),
		TransactionNo: fmt.Sprintf("TRX-%s-%04d", now.Format("20060102"), s.txSeq),
		CustomerID:    customer.ID,
		Customer:      customer,
		Items:         items,
		TotalAmount:   total,
		PaymentMethod: req.PaymentMethod,
		CurrentStatus: order.StatusReceived,
		Progress: []order.ProgressEntry{{
			Status:    order.StatusReceived,
			Timestamp: now,
			CheckedBy: s.users[0].Name,
			Notes:     "Order received at counter",
		}},
		EstimatedDone: now.Add(estimatedTurnaround),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	s.transactions = append([]*transaction{tx}, s.transactions...)

	writeData(w, http.StatusCreated, tx)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.findTransaction(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	writeData(w, http.StatusOK, tx)
}

func (s *Server) handleGetTransactionByNo(w http.ResponseWriter, r *http.Request) {
	no := chi.URLParam(r, "no")

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range s.transactions {
		if tx.TransactionNo == no {
			writeData(w, http.StatusOK, tx)
			return
		}
	}

	writeError(w, http.StatusNotFound, "transaction not found")
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.findTransaction(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	writeData(w, http.StatusOK, tx.Progress)
}

func (s *Server) handleAddProgress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status    order.Status    `json:"status"`
		Notes     string          `json:"notes"`
		CheckedBy string          `json:"checked_by"`
		Metadata  json.RawMessage `json:"metadata"`
	}

	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.findTransaction(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	if err := s.advance(tx, req.Status, req.Notes, req.CheckedBy, req.Metadata); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeData(w, http.StatusOK, tx)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status    order.Status `json:"status"`
		Notes     string       `json:"notes"`
		CheckedBy string       `json:"checked_by"`
	}

	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.findTransaction(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	if err := s.advance(tx, req.Status, req.Notes, req.CheckedBy, nil); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeData(w, http.StatusOK, tx)
}

func (s *Server) handleCancelTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}

	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.findTransaction(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	if tx.CurrentStatus.Terminal() {
		writeError(w, http.StatusUnprocessableEntity, "transaction already finished")
		return
	}

	now := time.Now()
	tx.CurrentStatus = order.StatusCancelled
	tx.UpdatedAt = now
	tx.CompletedAt = &now
	tx.CompletionType = "cancelled"
	tx.Progress = append(tx.Progress, order.ProgressEntry{
		Status:    order.StatusCancelled,
		Timestamp: now,
		CheckedBy: s.users[0].Name,
		Notes:     req.Reason,
	})

	writeData(w, http.StatusOK, tx)
}

func (s *Server) handleByStatus(w http.ResponseWriter, r *http.Request) {
	status := order.Status(chi.URLParam(r, "status"))
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	s.mu.Lock()
	out := []transaction{}

	for _, tx := range s.transactions {
		if tx.CurrentStatus == status {
			out = append(out, tx.snapshot())
		}
	}
	s.mu.Unlock()

	writeData(w, http.StatusOK, out)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	counts := make(map[order.Status]int)

	s.mu.Lock()
	for _, tx := range s.transactions {
		counts[tx.CurrentStatus]++
	}
	s.mu.Unlock()

	writeData(w, http.StatusOK, counts)
}

// advance appends one audit entry and moves the current status. Backwards
// transitions and transitions out of a terminal state are rejected here, as
// the client deliberately does not validate them.
func (s *Server) advance(tx *transaction, status order.Status, notes, checkedBy string, metadata json.RawMessage) error {
	if !status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}

	if tx.CurrentStatus.Terminal() {
		return fmt.Errorf("transaction already finished")
	}

	if rank(status) < rank(tx.CurrentStatus) {
		return fmt.Errorf("cannot move from %s back to %s", tx.CurrentStatus, status)
	}

	if checkedBy == "" {
		checkedBy = s.users[0].Name
	}

	now := time.Now()
	tx.CurrentStatus = status
	tx.UpdatedAt = now

	if status.Terminal() {
		tx.CompletedAt = &now
		tx.CompletionType = string(status)
	}

	tx.Progress = append(tx.Progress, order.ProgressEntry{
		Status:    status,
		Timestamp: now,
		CheckedBy: checkedBy,
		Notes:     notes,
		Metadata:  metadata,
	})

	return nil
}

func rank(s order.Status) int {
	for i, st := range order.Stages {
		if st == s {
			return i
		}
	}

	// Terminal states outrank every pipeline stage.
	return len(order.Stages)
}

// snapshot returns a value copy that is safe to encode after the server lock
// is released; a concurrent advance would otherwise mutate the record and
// append to its progress slice mid-encode.
func (tx *transaction) snapshot() transaction {
	out := *tx
	out.Items = append([]order.Item(nil), tx.Items...)
	out.Progress = append([]order.ProgressEntry(nil), tx.Progress...)

	return out
}

func (s *Server) findTransaction(id string) (*transaction, bool) {
	for _, tx := range s.transactions {
		if tx.ID == id {
			return tx, true
		}
	}

	return nil, false
}

func (s *Server) findCustomer(id string) (catalog.Customer, bool) {
	for _, c := range s.customers {
		if c.ID == id {
			return c, true
		}
	}

	return catalog.Customer{}, false
}

func (s *Server) findService(id string) (catalog.Service, bool) {
	for _, svc := range s.services {
		if svc.ID == id {
			return svc, true
		}
	}

	return catalog.Service{}, false
}
