package catalog

import (
	"context"
	"net/url"
	"sync"

	"github.com/cucikilat/pos/internal/api"
)

// Entity is a catalog record with an identity and a uniqueness key enforced
// client-side before submission.
type Entity interface {
	EntityID() string
	UniqueKey() string
}

// Store is the cached client-side collection for one entity type. The CRUD
// contract is identical for customers and services; only the endpoint path,
// the uniqueness rule's wording and the validation differ.
type Store[T Entity] struct {
	gw       api.Gateway
	path     string
	keyLabel string
	validate func(T) error

	mu      sync.Mutex
	items   []T
	total   int
	loading bool
	err     string
}

// NewCustomerStore builds the customer catalog store.
func NewCustomerStore(gw api.Gateway) *Store[Customer] {
	return &Store[Customer]{
		gw:       gw,
		path:     "/customers",
		keyLabel: "phone number",
		validate: validateCustomer,
	}
}

// NewServiceStore builds the laundry service catalog store.
func NewServiceStore(gw api.Gateway) *Store[Service] {
	return &Store[Service]{
		gw:       gw,
		path:     "/services",
		keyLabel: "name",
		validate: validateService,
	}
}

// FetchAll replaces the local collection with the server's page. It never
// merges.
func (s *Store[T]) FetchAll(ctx context.Context, params url.Values) error {
	s.begin()

	var items []T

	pg, err := s.gw.GetPage(ctx, s.path, params, &items)
	if err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	s.items = items
	s.total = len(items)

	if pg != nil {
		s.total = pg.Total
	}
	s.mu.Unlock()

	s.finish()

	return nil
}

// Create validates locally, then submits. On success the new record is
// prepended to the local collection rather than refetched.
func (s *Store[T]) Create(ctx context.Context, item T) (T, error) {
	var zero T

	s.begin()

	if err := s.precheck(item, ""); err != nil {
		return zero, s.fail(err)
	}

	var created T
	if err := s.gw.Post(ctx, s.path, item, &created); err != nil {
		return zero, s.fail(err)
	}

	s.mu.Lock()
	s.items = append([]T{created}, s.items...)
	s.total++
	s.mu.Unlock()

	s.finish()

	return created, nil
}

// Update validates locally (excluding the record being updated from the
// uniqueness check), then submits and replaces the matching record in place.
func (s *Store[T]) Update(ctx context.Context, id string, item T) (T, error) {
	var zero T

	s.begin()

	if err := s.precheck(item, id); err != nil {
		return zero, s.fail(err)
	}

	var updated T
	if err := s.gw.Put(ctx, s.path+"/"+id, item, &updated); err != nil {
		return zero, s.fail(err)
	}

	s.mu.Lock()
	for i, it := range s.items {
		if it.EntityID() == id {
			s.items[i] = updated
			break
		}
	}
	s.mu.Unlock()

	s.finish()

	return updated, nil
}

// Delete removes from the local collection only after server confirmation.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	s.begin()

	if err := s.gw.Delete(ctx, s.path+"/"+id, nil, nil); err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	kept := s.items[:0]

	for _, it := range s.items {
		if it.EntityID() != id {
			kept = append(kept, it)
		}
	}

	s.items = kept
	s.total--
	s.mu.Unlock()

	s.finish()

	return nil
}

// Items returns a snapshot copy of the collection.
func (s *Store[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]T, len(s.items))
	copy(out, s.items)

	return out
}

// Find looks a record up by id in the local collection.
func (s *Store[T]) Find(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.items {
		if it.EntityID() == id {
			return it, true
		}
	}

	var zero T

	return zero, false
}

// HasKey reports whether the uniqueness key is already taken by a record
// other than excludeID.
func (s *Store[T]) HasKey(key, excludeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hasKeyLocked(key, excludeID)
}

func (s *Store[T]) hasKeyLocked(key, excludeID string) bool {
	for _, it := range s.items {
		if it.UniqueKey() == key && it.EntityID() != excludeID {
			return true
		}
	}

	return false
}

func (s *Store[T]) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.total
}

func (s *Store[T]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loading
}

// Err returns the last action's error message, empty when the store is
// consistent.
func (s *Store[T]) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

func (s *Store[T]) precheck(item T, excludeID string) error {
	if err := s.validate(item); err != nil {
		return err
	}

	s.mu.Lock()
	taken := s.hasKeyLocked(item.UniqueKey(), excludeID)
	s.mu.Unlock()

	if taken {
		return &ValidationError{Message: s.keyLabel + " must be unique"}
	}

	return nil
}

func (s *Store[T]) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
}

func (s *Store[T]) finish() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *Store[T]) fail(err error) error {
	s.mu.Lock()
	s.loading = false
	s.err = err.Error()
	s.mu.Unlock()

	return err
}
