package pos

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"gitlab.connectwisedev.com/pos-service/models"
	"gitlab.connectwisedev.com/pos-service/pkg/store"
)

var emailPattern = regexp.MustCompile(`^[\w-]+(\.[\w-]+)*@([\w-]+\.)+[a-zA-Z]{2,7}$`)

// NewCustomer is a registration request.
type NewCustomer struct {
	Name  string
	Email string
	Phone string
}

type CustomerService struct {
	store  store.CustomerStore
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

func NewCustomerService(s store.CustomerStore, logger *slog.Logger) *CustomerService {
	return &CustomerService{
		store:  s,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Create registers a customer. The email is compared exactly as stored.
func (s *CustomerService) Create(ctx context.Context, in NewCustomer) (*models.Customer, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	phone := strings.TrimSpace(in.Phone)

	if name == "" || email == "" || phone == "" {
		return nil, newError(KindInvalidInput, "All fields are required")
	}
	if !emailPattern.MatchString(email) {
		return nil, newError(KindInvalidInput, "Invalid email format")
	}

	_, err := s.store.FindCustomerByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, newError(KindDuplicateEmail, "Email already registered")
	case !errors.Is(err, store.ErrNotFound):
		return nil, internal("look up customer email", err)
	}

	customer := &models.Customer{
		ID:        s.newID(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: s.now(),
	}
	// The unique index still catches a concurrent registration that passed
	// the lookup above.
	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, newError(KindDuplicateEmail, "Email already registered")
		}
		return nil, internal("create customer", err)
	}

	s.logger.Info("customer_created", "customer_id", customer.ID)
	return customer, nil
}

// List returns customers newest first.
func (s *CustomerService) List(ctx context.Context, req PageRequest) (models.Page[models.Customer], error) {
	req = req.normalize(DefaultCustomerPageSize)
	items, total, err := s.store.ListCustomers(ctx, req.offset(), int64(req.Limit))
	if err != nil {
		return models.Page[models.Customer]{}, internal("list customers", err)
	}
	return newPage(items, req, total), nil
}
