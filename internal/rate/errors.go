package rate

import "errors"

var (
	// ErrRateLimited is returned when a caller exceeded its window budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable is returned when the counter backend failed.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
