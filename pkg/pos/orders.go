package pos

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gitlab.connectwisedev.com/pos-service/models"
	"gitlab.connectwisedev.com/pos-service/pkg/store"
)

// TotalTolerance is the largest accepted difference between the declared
// and the recomputed order total.
var TotalTolerance = decimal.New(1, -2)

// NewOrder is a checkout request. Total is the client's declared total;
// nil pointers mean the field was absent.
type NewOrder struct {
	CustomerID string
	Items      []models.OrderItem
	Total      *float64
	Tax        *float64
	Discount   *float64
	Shipping   *float64
}

type OrderService struct {
	customers store.CustomerStore
	products  store.ProductStore
	orders    store.OrderStore
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

func NewOrderService(customers store.CustomerStore, products store.ProductStore, orders store.OrderStore, logger *slog.Logger) *OrderService {
	return &OrderService{
		customers: customers,
		products:  products,
		orders:    orders,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Create validates an order against current product prices and stores it.
//
// The declared total is compared with the sum of price × quantity over the
// line items only; tax, discount and shipping are stored but not checked.
// Validation reads and the final write are separate calls, so a price
// changed concurrently may not be seen.
func (s *OrderService) Create(ctx context.Context, in NewOrder) (*models.Order, error) {
	if in.CustomerID == "" || len(in.Items) == 0 || in.Total == nil {
		return nil, newError(KindMissingField, "Required fields missing")
	}
	for i, item := range in.Items {
		if item.Product == "" {
			return nil, newError(KindInvalidInput, "Item %d has no product", i)
		}
		if item.Quantity < 1 {
			return nil, newError(KindInvalidInput, "Item %d quantity must be a positive integer", i)
		}
	}

	if _, err := s.customers.FindCustomerByID(ctx, in.CustomerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindCustomerNotFound, "Customer not found")
		}
		return nil, internal("find customer", err)
	}

	calculated := decimal.Zero
	for _, item := range in.Items {
		product, err := s.products.FindProductByID(ctx, item.Product)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, newError(KindProductNotFound, "Product %s not found", item.Product)
			}
			return nil, internal("find product", err)
		}
		line := decimal.NewFromFloat(product.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		calculated = calculated.Add(line)
	}

	declared := decimal.NewFromFloat(*in.Total)
	if calculated.Sub(declared).Abs().GreaterThan(TotalTolerance) {
		s.logger.Warn("order_total_mismatch",
			"customer_id", in.CustomerID,
			"declared", declared.String(),
			"calculated", calculated.String(),
		)
		return nil, newError(KindTotalMismatch, "Order total mismatch")
	}

	order := &models.Order{
		ID:        s.newID(),
		Customer:  in.CustomerID,
		Items:     append([]models.OrderItem(nil), in.Items...),
		Total:     *in.Total,
		Tax:       valueOrZero(in.Tax),
		Discount:  valueOrZero(in.Discount),
		Shipping:  valueOrZero(in.Shipping),
		CreatedAt: s.now(),
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, internal("create order", err)
	}

	s.logger.Info("order_created", "order_id", order.ID, "customer_id", order.Customer, "items", len(order.Items))
	return order, nil
}

// List returns orders newest first with customer and product references
// expanded from the current records. References that no longer resolve are
// left without details.
func (s *OrderService) List(ctx context.Context, req PageRequest) (models.Page[models.OrderView], error) {
	req = req.normalize(DefaultOrderPageSize)
	orders, total, err := s.orders.ListOrders(ctx, req.offset(), int64(req.Limit))
	if err != nil {
		return models.Page[models.OrderView]{}, internal("list orders", err)
	}

	customerIDs, productIDs := referencedIDs(orders)

	customers, err := s.customers.FindCustomersByIDs(ctx, customerIDs)
	if err != nil {
		return models.Page[models.OrderView]{}, internal("expand order customers", err)
	}
	products, err := s.products.FindProductsByIDs(ctx, productIDs)
	if err != nil {
		return models.Page[models.OrderView]{}, internal("expand order products", err)
	}

	customerByID := make(map[string]*models.CustomerSummary, len(customers))
	for _, c := range customers {
		customerByID[c.ID] = &models.CustomerSummary{ID: c.ID, Name: c.Name, Email: c.Email}
	}
	productByID := make(map[string]*models.ProductSummary, len(products))
	for _, p := range products {
		productByID[p.ID] = &models.ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price}
	}

	views := make([]models.OrderView, len(orders))
	for i, o := range orders {
		items := make([]models.OrderItemView, len(o.Items))
		for j, item := range o.Items {
			items[j] = models.OrderItemView{OrderItem: item, ProductDetails: productByID[item.Product]}
		}
		views[i] = models.OrderView{
			ID:              o.ID,
			Customer:        o.Customer,
			CustomerDetails: customerByID[o.Customer],
			Items:           items,
			Total:           o.Total,
			Tax:             o.Tax,
			Discount:        o.Discount,
			Shipping:        o.Shipping,
			CreatedAt:       o.CreatedAt,
		}
	}
	return newPage(views, req, total), nil
}

func referencedIDs(orders []models.Order) (customerIDs, productIDs []string) {
	seenCustomers := make(map[string]struct{})
	seenProducts := make(map[string]struct{})
	for _, o := range orders {
		if _, ok := seenCustomers[o.Customer]; !ok {
			seenCustomers[o.Customer] = struct{}{}
			customerIDs = append(customerIDs, o.Customer)
		}
		for _, item := range o.Items {
			if _, ok := seenProducts[item.Product]; !ok {
				seenProducts[item.Product] = struct{}{}
				productIDs = append(productIDs, item.Product)
			}
		}
	}
	return customerIDs, productIDs
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
