package pos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"gitlab.connectwisedev.com/pos-service/models"
	"gitlab.connectwisedev.com/pos-service/pkg/store"
)

// ProductCache caches product listing pages. Implementations swallow their
// own failures: a broken cache behaves like an empty one.
//
// GetProducts reports the cache version it looked under. SetProducts files a
// page under that version, so a page read before an invalidation never
// becomes visible after it.
type ProductCache interface {
	GetProducts(ctx context.Context, page, limit int, search string) (p models.Page[models.Product], version int64, ok bool)
	SetProducts(ctx context.Context, version int64, page, limit int, search string, p models.Page[models.Product])
	InvalidateProducts(ctx context.Context)
}

type noCache struct{}

func (noCache) GetProducts(context.Context, int, int, string) (models.Page[models.Product], int64, bool) {
	return models.Page[models.Product]{}, -1, false
}
func (noCache) SetProducts(context.Context, int64, int, int, string, models.Page[models.Product]) {}
func (noCache) InvalidateProducts(context.Context)                                               {}

// listTimeout bounds a shared listing read, which no longer follows the
// cancellation of the request that started it.
const listTimeout = 30 * time.Second

// NewProduct is a product creation request. Price is the raw submitted value.
type NewProduct struct {
	Name        string
	Price       string
	Image       string
	Description string
}

// ProductQuery is a listing request with an optional search term.
type ProductQuery struct {
	PageRequest
	Search string
}

type ProductService struct {
	store  store.ProductStore
	cache  ProductCache
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time
	newID  func() string
}

// NewProductService wires the product store and an optional listing cache.
func NewProductService(s store.ProductStore, cache ProductCache, logger *slog.Logger) *ProductService {
	if cache == nil {
		cache = noCache{}
	}
	return &ProductService{
		store:  s,
		cache:  cache,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// ParsePrice accepts finite, non-negative decimal numbers.
func ParsePrice(raw string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("price %q is not a number", raw)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("price %q is not a finite number", raw)
	}
	if price < 0 {
		return 0, fmt.Errorf("price must not be negative")
	}
	return price, nil
}

// Create stores a product whose image has already been saved.
func (s *ProductService) Create(ctx context.Context, in NewProduct) (*models.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || strings.TrimSpace(in.Price) == "" || in.Image == "" {
		return nil, newError(KindInvalidInput, "All fields are required")
	}
	price, err := ParsePrice(in.Price)
	if err != nil {
		return nil, &Error{Kind: KindInvalidInput, Message: err.Error()}
	}

	product := &models.Product{
		ID:          s.newID(),
		Name:        name,
		Price:       price,
		Image:       in.Image,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   s.now(),
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, internal("create product", err)
	}
	s.cache.InvalidateProducts(ctx)

	s.logger.Info("product_created", "product_id", product.ID, "price", product.Price)
	return product, nil
}

// List returns products newest first, filtered by a case-insensitive
// substring of name or description. Concurrent misses for the same page are
// collapsed into one store query.
func (s *ProductService) List(ctx context.Context, q ProductQuery) (models.Page[models.Product], error) {
	req := q.PageRequest.normalize(DefaultProductPageSize)
	search := strings.TrimSpace(q.Search)

	page, version, ok := s.cache.GetProducts(ctx, req.Page, req.Limit, search)
	if ok {
		return page, nil
	}

	// The shared read is detached from the cancellation of whichever caller
	// started it.
	key := fmt.Sprintf("%d:%d:%d:%s", version, req.Page, req.Limit, strings.ToLower(search))
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listTimeout)
		defer cancel()

		items, total, err := s.store.ListProducts(ctx, store.ProductQuery{
			Offset: req.offset(),
			Limit:  int64(req.Limit),
			Search: search,
		})
		if err != nil {
			return nil, err
		}
		page := newPage(items, req, total)
		s.cache.SetProducts(ctx, version, req.Page, req.Limit, search, page)
		return page, nil
	})
	if err != nil {
		return models.Page[models.Product]{}, internal("list products", err)
	}
	return v.(models.Page[models.Product]), nil
}

// Delete removes a product. Orders that reference it are left untouched and
// render without product details afterwards. A missing id is NotFound.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return newError(KindInvalidInput, "Product id is required")
	}
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newError(KindNotFound, "Product %s not found", id)
		}
		return internal("delete product", err)
	}
	s.cache.InvalidateProducts(ctx)

	s.logger.Info("product_deleted", "product_id", id)
	return nil
}
