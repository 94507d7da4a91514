package core

import (
	"errors"
	"fmt"
)

// ErrLimitExceeded is returned by ModelLimiter.Increment once the budget is
// spent.
var ErrLimitExceeded = errors.New("model call limit exceeded")

// ModelLimiter enforces a maximum number of model calls for one agent
// invocation. Limiters are not shared between invocations.
type ModelLimiter struct {
	max   int
	count int
}

// NewModelLimiter creates a new limiter with a max number of calls.
// If max <= 0, unlimited calls are allowed.
func NewModelLimiter(max int) *ModelLimiter {
	return &ModelLimiter{max: max}
}

// Increment reserves one call. It returns an error wrapping ErrLimitExceeded
// when the reservation would go over budget; the counter is left unchanged in
// that case.
func (ml *ModelLimiter) Increment() error {
	if ml.max > 0 && ml.count >= ml.max {
		return fmt.Errorf("%w: %d", ErrLimitExceeded, ml.max)
	}
	ml.count++
	return nil
}

// Count returns the number of calls reserved so far.
func (ml *ModelLimiter) Count() int { return ml.count }

// Remaining returns how many calls are left before hitting the limit.
func (ml *ModelLimiter) Remaining() int {
	if ml.max <= 0 {
		return -1 // unlimited
	}
	return ml.max - ml.count
}
