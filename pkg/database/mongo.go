package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"gitlab.connectwisedev.com/pos-service/pkg/config"
)

// ConnectTimeout bounds server selection and the startup ping. Failing to
// connect within it is fatal for the process; there is no retry loop.
const ConnectTimeout = 5 * time.Second

// MongoClient holds the MongoDB connection and the application database.
type MongoClient struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoClient connects to MongoDB and pings the primary.
func NewMongoClient(cfg config.MongoConfig) (*MongoClient, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(ConnectTimeout).
		SetRetryWrites(true)

	ctx, cancel := context.WithTimeout(context.Background(), 2*ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	log.Printf("Successfully connected to MongoDB database %q!", cfg.Database)
	return &MongoClient{client: client, db: client.Database(cfg.Database)}, nil
}

// Close disconnects from MongoDB.
func (c *MongoClient) Close() {
	if c.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), ConnectTimeout)
	defer cancel()
	if err := c.client.Disconnect(ctx); err != nil {
		log.Printf("Error disconnecting from MongoDB: %v", err)
		return
	}
	log.Println("MongoDB connection closed.")
}

// GetDB returns the application database.
func (c *MongoClient) GetDB() *mongo.Database {
	return c.db
}
