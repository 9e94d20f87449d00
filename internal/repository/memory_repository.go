package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"product-api/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryProductRepository keeps products in process memory. It backs STORE_DRIVER=memory
// and the HTTP tests; results follow the same ordering rules as ProductRepository.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]model.Product
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[primitive.ObjectID]model.Product),
	}
}

func (r *MemoryProductRepository) Insert(_ context.Context, product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product.ID = primitive.NewObjectID()
	r.products[product.ID] = *product
	return nil
}

// sorted returns the products matching keep in _id order. Callers hold the read lock.
func (r *MemoryProductRepository) sorted(keep func(model.Product) bool) []model.Product {
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		if keep == nil || keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.Compare(out[i].ID.Hex(), out[j].ID.Hex()) < 0
	})
	return out
}

func (r *MemoryProductRepository) FindPage(_ context.Context, skip, limit int64) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.sorted(nil)
	n := int64(len(all))
	if skip < 0 || skip >= n {
		return []model.Product{}, nil
	}
	end := n
	if limit > 0 && limit < n-skip {
		end = skip + limit
	}
	return all[skip:end], nil
}

func (r *MemoryProductRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.products)), nil
}

func (r *MemoryProductRepository) SearchByName(_ context.Context, term string) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(term)
	return r.sorted(func(p model.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	}), nil
}

func (r *MemoryProductRepository) FindByID(_ context.Context, id primitive.ObjectID) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *MemoryProductRepository) Update(_ context.Context, id primitive.ObjectID, updated *model.Product) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	cur.Name = updated.Name
	cur.Description = updated.Description
	cur.Price = updated.Price
	cur.Category = updated.Category
	cur.InStock = updated.InStock
	cur.UpdatedAt = updated.UpdatedAt
	r.products[id] = cur

	return &cur, nil
}

func (r *MemoryProductRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *MemoryProductRepository) CountByCategory(_ context.Context) ([]model.CategoryCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byCategory := make(map[string]int64)
	for _, p := range r.products {
		key := p.Category
		if key == "" {
			key = model.Uncategorized
		}
		byCategory[key]++
	}

	counts := make([]model.CategoryCount, 0, len(byCategory))
	for category, n := range byCategory {
		counts = append(counts, model.CategoryCount{Category: category, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Category < counts[j].Category })
	return counts, nil
}
