package pos

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"gitlab.connectwisedev.com/pos-service/models"
	"gitlab.connectwisedev.com/pos-service/pkg/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// tickingClock returns a clock that advances one second per call, so records
// created in sequence have distinct, increasing timestamps.
func tickingClock() func() time.Time {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	var n int64
	return func() time.Time {
		return base.Add(time.Duration(atomic.AddInt64(&n, 1)) * time.Second)
	}
}

// countingProducts records how many single-product lookups were made.
type countingProducts struct {
	store.ProductStore
	lookups int
}

func (c *countingProducts) FindProductByID(ctx context.Context, id string) (*models.Product, error) {
	c.lookups++
	return c.ProductStore.FindProductByID(ctx, id)
}

func ptr(f float64) *float64 { return &f }
