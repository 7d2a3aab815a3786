package myidempotency

import (
	"context"
	"time"
)

type State string

const (
	StateInProgress State = "IN_PROGRESS"
	StateCompleted  State = "COMPLETED"
)

// Record is what is remembered for an idempotency key: the request fingerprint and,
// once completed, the response that must be replayed.
type Record struct {
	State       State
	Fingerprint string
	StatusCode  int
	Body        []byte
}

//go:generate mockgen -source=api.go -package myidempotency -destination store_mock.go Store
type Store interface {
	// Reserve claims the key. When the key is already claimed it returns the existing record and false.
	Reserve(c context.Context, key string, fingerprint string, ttl time.Duration) (Record, bool, error)
	Complete(c context.Context, key string, record Record, ttl time.Duration) error
	Release(c context.Context, key string) error
}
