package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gitlab.connectwisedev.com/pos-service/models"
)

// MemoryStore keeps everything in process memory. It backs STORE_DRIVER=memory
// and the service tests.
type MemoryStore struct {
	mu        sync.RWMutex
	customers map[string]models.Customer
	products  map[string]models.Product
	orders    map[string]models.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		customers: make(map[string]models.Customer),
		products:  make(map[string]models.Product),
		orders:    make(map[string]models.Order),
	}
}

func (s *MemoryStore) CreateCustomer(_ context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.customers {
		if existing.Email == c.Email {
			return ErrDuplicateEmail
		}
	}
	s.customers[c.ID] = *c
	return nil
}

func (s *MemoryStore) FindCustomerByID(_ context.Context, id string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) FindCustomerByEmail(_ context.Context, email string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.customers {
		if c.Email == email {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindCustomersByIDs(_ context.Context, ids []string) ([]models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Customer, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.customers[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListCustomers(_ context.Context, offset, limit int64) ([]models.Customer, int64, error) {
	s.mu.RLock()
	all := make([]models.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		all = append(all, c)
	}
	s.mu.RUnlock()

	sortNewestFirst(all, func(c models.Customer) (time.Time, string) { return c.CreatedAt, c.ID })
	return window(all, offset, limit), int64(len(all)), nil
}

func (s *MemoryStore) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products[p.ID] = *p
	return nil
}

func (s *MemoryStore) FindProductByID(_ context.Context, id string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) FindProductsByIDs(_ context.Context, ids []string) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListProducts(_ context.Context, q ProductQuery) ([]models.Product, int64, error) {
	term := strings.ToLower(q.Search)

	s.mu.RLock()
	matched := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if term == "" ||
			strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Description), term) {
			matched = append(matched, p)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(matched, func(p models.Product) (time.Time, string) { return p.CreatedAt, p.ID })
	return window(matched, q.Offset, q.Limit), int64(len(matched)), nil
}

func (s *MemoryStore) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *MemoryStore) CreateOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *o
	stored.Items = append([]models.OrderItem(nil), o.Items...)
	s.orders[o.ID] = stored
	return nil
}

func (s *MemoryStore) ListOrders(_ context.Context, offset, limit int64) ([]models.Order, int64, error) {
	s.mu.RLock()
	all := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		all = append(all, o)
	}
	s.mu.RUnlock()

	sortNewestFirst(all, func(o models.Order) (time.Time, string) { return o.CreatedAt, o.ID })
	return window(all, offset, limit), int64(len(all)), nil
}

// OrderCount returns the number of stored orders.
func (s *MemoryStore) OrderCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// ProductCount returns the number of stored products.
func (s *MemoryStore) ProductCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// sortNewestFirst orders by creation time descending, then id descending,
// matching the database backends.
func sortNewestFirst[T any](items []T, key func(T) (time.Time, string)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return idi > idj
	})
}

func window[T any](items []T, offset, limit int64) []T {
	n := int64(len(items))
	if offset >= n {
		return []T{}
	}
	end := offset + limit
	if end > n {
		end = n
	}
	return items[offset:end]
}
