// Package ratelimit counts requests per client over a fixed window.
package ratelimit

import "context"

// Limiter decides whether one more request from key is allowed.
// A non-nil error means the decision could not be made; allowed then
// reports the fail-open answer.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, err error)
}
