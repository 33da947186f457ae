package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gitlab.connectwisedev.com/pos-service/models"
)

const (
	customersCollection = "customers"
	productsCollection  = "products"
	ordersCollection    = "orders"
)

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

// MongoStore is the document database backend.
type MongoStore struct {
	customers *mongo.Collection
	products  *mongo.Collection
	orders    *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		customers: db.Collection(customersCollection),
		products:  db.Collection(productsCollection),
		orders:    db.Collection(ordersCollection),
	}
}

// EnsureIndexes creates the unique email index and the listing sort indexes.
// The email index is what makes concurrent duplicate registrations fail.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.customers.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create customers email index: %w", err)
	}

	for _, coll := range []*mongo.Collection{s.customers, s.products, s.orders} {
		_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: newestFirst})
		if err != nil {
			return fmt.Errorf("create %s createdAt index: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *MongoStore) CreateCustomer(ctx context.Context, c *models.Customer) error {
	_, err := s.customers.InsertOne(ctx, c)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (s *MongoStore) FindCustomerByID(ctx context.Context, id string) (*models.Customer, error) {
	return findOne[models.Customer](ctx, s.customers, bson.M{"_id": id})
}

func (s *MongoStore) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return findOne[models.Customer](ctx, s.customers, bson.M{"email": email})
}

func (s *MongoStore) FindCustomersByIDs(ctx context.Context, ids []string) ([]models.Customer, error) {
	return findByIDs[models.Customer](ctx, s.customers, ids)
}

func (s *MongoStore) ListCustomers(ctx context.Context, offset, limit int64) ([]models.Customer, int64, error) {
	return listPage[models.Customer](ctx, s.customers, bson.M{}, offset, limit)
}

func (s *MongoStore) CreateProduct(ctx context.Context, p *models.Product) error {
	if _, err := s.products.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *MongoStore) FindProductByID(ctx context.Context, id string) (*models.Product, error) {
	return findOne[models.Product](ctx, s.products, bson.M{"_id": id})
}

func (s *MongoStore) FindProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	return findByIDs[models.Product](ctx, s.products, ids)
}

func (s *MongoStore) ListProducts(ctx context.Context, q ProductQuery) ([]models.Product, int64, error) {
	return listPage[models.Product](ctx, s.products, productFilter(q.Search), q.Offset, q.Limit)
}

func (s *MongoStore) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CreateOrder(ctx context.Context, o *models.Order) error {
	if _, err := s.orders.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *MongoStore) ListOrders(ctx context.Context, offset, limit int64) ([]models.Order, int64, error) {
	return listPage[models.Order](ctx, s.orders, bson.M{}, offset, limit)
}

// productFilter matches the term literally, ignoring case, in name or
// description.
func productFilter(search string) bson.M {
	if search == "" {
		return bson.M{}
	}
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"name": pattern},
		bson.M{"description": pattern},
	}}
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	err := coll.FindOne(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	return &out, nil
}

func findByIDs[T any](ctx context.Context, coll *mongo.Collection, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	cur, err := coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find %s by ids: %w", coll.Name(), err)
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

func listPage[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, offset, limit int64) ([]T, int64, error) {
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", coll.Name(), err)
	}

	opts := options.Find().SetSort(newestFirst).SetSkip(offset).SetLimit(limit)
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", coll.Name(), err)
	}
	items := []T{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return items, total, nil
}
