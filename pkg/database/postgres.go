package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"gitlab.connectwisedev.com/pos-service/pkg/config"
)

// DBClient holds the PostgreSQL database connection.
type DBClient struct {
	db *sql.DB
}

// NewPostgresClient opens a pooled PostgreSQL connection and pings it within
// ConnectTimeout.
func NewPostgresClient(cfg config.PostgresConfig) (*DBClient, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), ConnectTimeout)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL!")
	return &DBClient{db: db}, nil
}

// Close closes the database connection.
func (c *DBClient) Close() {
	if c.db != nil {
		c.db.Close()
		log.Println("PostgreSQL connection closed.")
	}
}

// GetDB returns the underlying *sql.DB instance.
func (c *DBClient) GetDB() *sql.DB {
	return c.db
}
