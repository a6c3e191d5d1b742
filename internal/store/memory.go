package store

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/abgdnv/stitchnstyle/internal/cart"
	"github.com/abgdnv/stitchnstyle/internal/catalog"
	"github.com/abgdnv/stitchnstyle/internal/customorder"
	sferrors "github.com/abgdnv/stitchnstyle/internal/errors"
	"github.com/google/uuid"
)

// MemoryCartStore is a process-local CartStore.
type MemoryCartStore struct {
	mu    sync.Mutex
	carts map[string]cart.Items
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: make(map[string]cart.Items)}
}

func (s *MemoryCartStore) Get(_ context.Context, owner string) (cart.Items, error) {
	if owner == "" {
		return nil, sferrors.ErrOwnerRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[owner].Clone(), nil
}

func (s *MemoryCartStore) Update(_ context.Context, owner string, fn func(c *cart.Cart) error) (cart.Items, error) {
	if owner == "" {
		return nil, sferrors.ErrOwnerRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := cart.FromItems(owner, s.carts[owner])
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	s.carts[owner] = c.Items()
	return c.Items(), nil
}

// MemoryProductStore is a process-local ProductStore.
type MemoryProductStore struct {
	mu       sync.RWMutex
	products map[uuid.UUID]catalog.Product
}

func NewMemoryProductStore(seed ...catalog.Product) *MemoryProductStore {
	s := &MemoryProductStore{products: make(map[uuid.UUID]catalog.Product, len(seed))}
	for _, p := range seed {
		s.products[p.ID] = p
	}
	return s
}

func (s *MemoryProductStore) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, sferrors.ErrProductNotFound
	}
	return &p, nil
}

func (s *MemoryProductStore) FindByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryProductStore) FindAll(_ context.Context, offset, limit int32) ([]catalog.Product, error) {
	s.mu.RLock()
	all := make([]catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		all = append(all, p)
	}
	s.mu.RUnlock()
	slices.SortFunc(all, func(a, b catalog.Product) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID.String(), b.ID.String()))
	})
	return page(all, offset, limit), nil
}

func (s *MemoryProductStore) Create(_ context.Context, p catalog.Product) (*catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Version = 1
	p.CreatedAt = time.Now().UTC()
	s.products[p.ID] = p
	return &p, nil
}

func (s *MemoryProductStore) Update(_ context.Context, p catalog.Product) (*catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.products[p.ID]
	if !ok {
		return nil, sferrors.ErrProductNotFound
	}
	if current.Version != p.Version {
		return nil, sferrors.ErrOptimisticLock
	}
	p.Version++
	p.CreatedAt = current.CreatedAt
	s.products[p.ID] = p
	return &p, nil
}

func (s *MemoryProductStore) DeleteByID(_ context.Context, id uuid.UUID, version int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.products[id]
	if !ok {
		return sferrors.ErrProductNotFound
	}
	if current.Version != version {
		return sferrors.ErrOptimisticLock
	}
	delete(s.products, id)
	return nil
}

// MemoryCustomOrderStore is a process-local CustomOrderStore. Orders are kept as JSON so callers
// never share mutable state with the store.
type MemoryCustomOrderStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID][]byte
}

func NewMemoryCustomOrderStore() *MemoryCustomOrderStore {
	return &MemoryCustomOrderStore{orders: make(map[uuid.UUID][]byte)}
}

func (s *MemoryCustomOrderStore) Create(_ context.Context, o *customorder.Order) error {
	doc, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode custom order: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[o.ID]; exists {
		return fmt.Errorf("custom order %s already exists", o.ID)
	}
	s.orders[o.ID] = doc
	return nil
}

func (s *MemoryCustomOrderStore) FindByID(_ context.Context, id uuid.UUID) (*customorder.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(id)
}

func (s *MemoryCustomOrderStore) FindByUser(_ context.Context, userID string, offset, limit int32) ([]customorder.Order, error) {
	return s.filter(func(o *customorder.Order) bool { return o.UserID == userID }, offset, limit)
}

func (s *MemoryCustomOrderStore) FindAll(_ context.Context, status customorder.Status, offset, limit int32) ([]customorder.Order, error) {
	return s.filter(func(o *customorder.Order) bool { return status == "" || o.Status == status }, offset, limit)
}

func (s *MemoryCustomOrderStore) Update(_ context.Context, id uuid.UUID, fn func(o *customorder.Order) error) (*customorder.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if err := fn(o); err != nil {
		return nil, err
	}
	o.ID = id
	o.Version++
	doc, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("encode custom order: %w", err)
	}
	s.orders[id] = doc
	return o, nil
}

func (s *MemoryCustomOrderStore) load(id uuid.UUID) (*customorder.Order, error) {
	doc, ok := s.orders[id]
	if !ok {
		return nil, sferrors.ErrOrderNotFound
	}
	var o customorder.Order
	if err := json.Unmarshal(doc, &o); err != nil {
		return nil, fmt.Errorf("decode custom order: %w", err)
	}
	return &o, nil
}

func (s *MemoryCustomOrderStore) filter(keep func(o *customorder.Order) bool, offset, limit int32) ([]customorder.Order, error) {
	s.mu.Lock()
	matched := make([]customorder.Order, 0)
	for id := range s.orders {
		o, err := s.load(id)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		if keep(o) {
			matched = append(matched, *o)
		}
	}
	s.mu.Unlock()
	slices.SortFunc(matched, func(a, b customorder.Order) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID.String(), b.ID.String()))
	})
	return page(matched, offset, limit), nil
}

func page[T any](all []T, offset, limit int32) []T {
	start := min(max(int(offset), 0), len(all))
	end := len(all)
	if limit > 0 {
		end = min(start+int(limit), len(all))
	}
	return all[start:end]
}
