package order

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/cucikilat/pos/internal/api"
)

// maxFetchRetries caps the confirm-and-retry loop when the first transaction
// load fails. The source had no cap, which loops forever against a dead
// backend.
const maxFetchRetries = 3

// Prompter presents a blocking retry-or-dismiss prompt. Confirming means
// "try again".
type Prompter interface {
	ConfirmRetry(message string) bool
}

// ProgressParams is one new audit entry for a transaction.
type ProgressParams struct {
	Status    Status          `json:"status"`
	Notes     string          `json:"notes,omitempty"`
	CheckedBy string          `json:"checked_by"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// StatusParams is a bare status change without stage findings.
type StatusParams struct {
	Status    Status `json:"status"`
	Notes     string `json:"notes,omitempty"`
	CheckedBy string `json:"checked_by"`
}

// Tracker owns the transaction list and its status state machine.
type Tracker struct {
	gw     api.Gateway
	prompt Prompter

	mu      sync.Mutex
	txs     []*Transaction
	loading bool
	err     string
}

func NewTracker(gw api.Gateway, prompt Prompter) *Tracker {
	return &Tracker{gw: gw, prompt: prompt}
}

// Fetch loads the transaction list, replacing the local copy. When the call
// fails and the list is currently empty, the user is offered a retry; a
// failure on a background refresh of already-visible data only records the
// error.
func (t *Tracker) Fetch(ctx context.Context, params url.Values) error {
	t.begin()

	var lastErr error

	for attempt := 0; ; attempt++ {
		txs, err := t.fetchOnce(ctx, params)
		if err == nil {
			t.mu.Lock()
			t.txs = txs
			t.loading = false
			t.mu.Unlock()

			return nil
		}

		lastErr = err

		t.mu.Lock()
		empty := len(t.txs) == 0
		t.mu.Unlock()

		if !empty || t.prompt == nil || attempt >= maxFetchRetries {
			break
		}

		msg := fmt.Sprintf("Failed to load transactions: %v. Retry?", err)
		if !t.prompt.ConfirmRetry(msg) {
			break
		}
	}

	return t.fail(lastErr)
}

func (t *Tracker) fetchOnce(ctx context.Context, params url.Values) ([]*Transaction, error) {
	var raw []json.RawMessage
	if _, err := t.gw.GetPage(ctx, "/transactions", params, &raw); err != nil {
		return nil, err
	}

	txs := make([]*Transaction, 0, len(raw))

	for _, r := range raw {
		tx, err := DecodeTransaction(r)
		if err != nil {
			return nil, err
		}

		txs = append(txs, tx)
	}

	return txs, nil
}

// FetchByStatus loads only the transactions currently in the given stage.
func (t *Tracker) FetchByStatus(ctx context.Context, status Status) ([]*Transaction, error) {
	var raw []json.RawMessage
	if err := t.gw.Get(ctx, "/progress/by-status/"+string(status), nil, &raw); err != nil {
		return nil, err
	}

	txs := make([]*Transaction, 0, len(raw))

	for _, r := range raw {
		tx, err := DecodeTransaction(r)
		if err != nil {
			return nil, err
		}

		txs = append(txs, tx)
	}

	return txs, nil
}

// Dashboard returns the count of open transactions per stage.
func (t *Tracker) Dashboard(ctx context.Context) (map[Status]int, error) {
	var counts map[Status]int
	if err := t.gw.Get(ctx, "/progress/dashboard", nil, &counts); err != nil {
		return nil, err
	}

	return counts, nil
}

// Prepend puts a freshly created transaction at the head of the list. Used
// by checkout.
func (t *Tracker) Prepend(tx *Transaction) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.txs = append([]*Transaction{tx}, t.txs...)
}

// AddProgress submits a new audit entry. The backend responds with the
// updated transaction, which replaces the local record; the post-condition
// is explicit rather than relying on a later refetch.
func (t *Tracker) AddProgress(ctx context.Context, id string, params ProgressParams) (*Transaction, error) {
	t.begin()

	var raw json.RawMessage
	if err := t.gw.Post(ctx, "/transactions/"+id+"/progress", params, &raw); err != nil {
		return nil, t.fail(err)
	}

	return t.applyUpdated(raw)
}

// UpdateStatus submits a status change and applies the updated transaction
// returned by the backend.
func (t *Tracker) UpdateStatus(ctx context.Context, id string, params StatusParams) (*Transaction, error) {
	t.begin()

	var raw json.RawMessage
	if err := t.gw.Patch(ctx, "/transactions/"+id+"/status", params, &raw); err != nil {
		return nil, t.fail(err)
	}

	return t.applyUpdated(raw)
}

// Cancel marks the transaction cancelled with a reason. Cancelled orders are
// never deleted; the terminal status is appended like any other.
func (t *Tracker) Cancel(ctx context.Context, id, reason string) (*Transaction, error) {
	t.begin()

	body := map[string]string{"reason": reason}

	var raw json.RawMessage
	if err := t.gw.Delete(ctx, "/transactions/"+id+"/cancel", body, &raw); err != nil {
		return nil, t.fail(err)
	}

	return t.applyUpdated(raw)
}

// Progress fetches the audit trail for one transaction.
func (t *Tracker) Progress(ctx context.Context, id string) ([]ProgressEntry, error) {
	var entries []ProgressEntry
	if err := t.gw.Get(ctx, "/transactions/"+id+"/progress", nil, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}

// Get returns the locally cached transaction by id.
func (t *Tracker) Get(id string) (*Transaction, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, tx := range t.txs {
		if tx.ID == id {
			return tx, true
		}
	}

	return nil, false
}

// GetByNumber fetches one transaction by its human-facing number.
func (t *Tracker) GetByNumber(ctx context.Context, no string) (*Transaction, error) {
	var raw json.RawMessage
	if err := t.gw.Get(ctx, "/transactions/no/"+no, nil, &raw); err != nil {
		return nil, err
	}

	return DecodeTransaction(raw)
}

// Transactions returns a snapshot of the list, newest first.
func (t *Tracker) Transactions() []*Transaction {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*Transaction, len(t.txs))
	copy(out, t.txs)

	return out
}

// ByStatus filters the local list.
func (t *Tracker) ByStatus(status Status) []*Transaction {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []*Transaction

	for _, tx := range t.txs {
		if tx.CurrentStatus == status {
			out = append(out, tx)
		}
	}

	return out
}

func (t *Tracker) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.loading
}

func (t *Tracker) Err() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.err
}

func (t *Tracker) applyUpdated(raw json.RawMessage) (*Transaction, error) {
	updated, err := DecodeTransaction(raw)
	if err != nil {
		return nil, t.fail(err)
	}

	t.mu.Lock()
	for i, tx := range t.txs {
		if tx.ID == updated.ID {
			t.txs[i] = updated
			break
		}
	}
	t.loading = false
	t.mu.Unlock()

	return updated, nil
}

func (t *Tracker) begin() {
	t.mu.Lock()
	t.loading = true
	t.err = ""
	t.mu.Unlock()
}

func (t *Tracker) fail(err error) error {
	t.mu.Lock()
	t.loading = false
	t.err = err.Error()
	t.mu.Unlock()

	return err
}
