package service

import (
	"context"
	"errors"
	"math"
	"time"

	"product-api/internal/apperror"
	"product-api/internal/model"
	"product-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
)

const (
	DefaultPage  int64 = 1
	DefaultLimit int64 = 10

	MsgInvalidID       = "Invalid product ID"
	MsgProductNotFound = "Product not found"
	MsgSearchRequired  = `Search term "name" is required`
)

// ProductStore is the document store gateway. ProductRepository and
// MemoryProductRepository both satisfy it.
type ProductStore interface {
	Insert(ctx context.Context, product *model.Product) error
	FindPage(ctx context.Context, skip, limit int64) ([]model.Product, error)
	Count(ctx context.Context) (int64, error)
	SearchByName(ctx context.Context, term string) ([]model.Product, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, updated *model.Product) (*model.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByCategory(ctx context.Context) ([]model.CategoryCount, error)
}

type ProductService struct {
	repo ProductStore
	now  func() time.Time
}

var ProductServiceTracer = otel.Tracer("ProductService")

func NewProductService(repo ProductStore) *ProductService {
	return &ProductService{repo: repo, now: time.Now}
}

func parseID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperror.ValidationWrap(MsgInvalidID, err)
	}
	return objID, nil
}

// storeError maps gateway errors onto the error kinds the HTTP layer understands.
func storeError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound(MsgProductNotFound)
	case repository.IsRejected(err):
		return apperror.ValidationWrap("Product rejected by the store", err)
	default:
		return err
	}
}

// List returns one page. page and limit below 1 fall back to the defaults.
func (s *ProductService) List(ctx context.Context, page, limit int64) (*model.ProductPage, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.List")
	defer span.End()

	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	products := []model.Product{}
	// A skip past math.MaxInt64 is past any stored document.
	if page-1 <= math.MaxInt64/limit {
		var err error
		products, err = s.repo.FindPage(ctx, (page-1)*limit, limit)
		if err != nil {
			return nil, err
		}
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &model.ProductPage{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: model.TotalPages(total, limit),
		Products:   products,
	}, nil
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.GetByID")
	defer span.End()

	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	product, err := s.repo.FindByID(ctx, objID)
	if err != nil {
		return nil, storeError(err)
	}
	return product, nil
}

func (s *ProductService) Search(ctx context.Context, name string) (*model.SearchResult, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Search")
	defer span.End()

	if name == "" {
		return nil, apperror.Validation(MsgSearchRequired)
	}
	products, err := s.repo.SearchByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return &model.SearchResult{Total: int64(len(products)), Products: products}, nil
}

func (s *ProductService) Stats(ctx context.Context) (*model.Stats, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Stats")
	defer span.End()

	counts, err := s.repo.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}
	stats := &model.Stats{CountByCategory: make(map[string]int64, len(counts))}
	for _, c := range counts {
		stats.CountByCategory[c.Category] += c.Count
	}
	return stats, nil
}

func (s *ProductService) Create(ctx context.Context, in *model.ProductInput) (*model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Create")
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	product := model.NewProduct(in, s.now())
	if err := s.repo.Insert(ctx, &product); err != nil {
		return nil, storeError(err)
	}
	return &product, nil
}

// Update replaces all five mutable fields; omitted optional ones are cleared and
// inStock falls back to true, exactly as on create.
func (s *ProductService) Update(ctx context.Context, id string, in *model.ProductInput) (*model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Update")
	defer span.End()

	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	replacement := model.NewProduct(in, s.now())
	updated, err := s.repo.Update(ctx, objID, &replacement)
	if err != nil {
		return nil, storeError(err)
	}
	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Delete")
	defer span.End()

	objID, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, objID); err != nil {
		return storeError(err)
	}
	return nil
}
