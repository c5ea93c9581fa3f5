// Package payment defines the boundary to the external payment executor.
// The engine computes what to pay; submitting the on-chain transfer is a
// collaborator's job, and only the resulting opaque transaction reference
// flows back in.
package payment

import (
	"context"
	"fmt"
	"sync"
)

// Request describes one transfer to submit.
type Request struct {
	// ToAddress is the recipient wallet address.
	ToAddress string

	// Amount is the transfer amount. Always positive.
	Amount float64

	// Currency is the symbolic currency code.
	Currency string
}

// Submitter executes a transfer and returns an opaque transaction
// reference. Implementations must not be called while holding a group
// lock; ledger operations stay synchronous and never wait on the chain.
type Submitter interface {
	Submit(ctx context.Context, req Request) (txRef string, err error)
}

// Recorder is a Submitter that records requests and fabricates references.
// Used in tests and local development.
type Recorder struct {
	mu       sync.Mutex
	requests []Request
}

// Submit records the request and returns a deterministic reference.
func (r *Recorder) Submit(_ context.Context, req Request) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return fmt.Sprintf("tx-%04d", len(r.requests)), nil
}

// Requests returns a copy of all submitted requests.
func (r *Recorder) Requests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Request, len(r.requests))
	copy(out, r.requests)
	return out
}
