package scheduler

import "errors"

var (
	// ErrNoEligibleQuestion means every candidate question was answered inside the
	// recency window, or there are no questions at all. Callers should retry later.
	ErrNoEligibleQuestion = errors.New("scheduler: no eligible question")
	ErrInvalidConfig      = errors.New("scheduler: invalid config")
)
