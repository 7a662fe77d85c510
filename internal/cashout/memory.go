package cashout

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu      sync.Mutex
	storage map[string]Request
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Request)}
}

func (r *memoryRepository) Create(_ context.Context, request Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[request.ID]; exists {
		return ErrDuplicateRequest
	}
	r.storage[request.ID] = request
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.storage[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return request, nil
}

func (r *memoryRepository) ListByMerchant(_ context.Context, merchantID string) ([]Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var requests []Request
	for _, req := range r.storage {
		if req.MerchantID == merchantID {
			requests = append(requests, req)
		}
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
	return requests, nil
}

func (r *memoryRepository) Approve(_ context.Context, id, txSignature string, processedAt time.Time) error {
	return r.transition(id, func(req *Request) {
		req.Status = StatusApproved
		req.TxSignature = txSignature
	}, processedAt)
}

func (r *memoryRepository) Deny(_ context.Context, id, errMsg string, processedAt time.Time) error {
	return r.transition(id, func(req *Request) {
		req.Status = StatusDenied
		req.ErrorMessage = errMsg
	}, processedAt)
}

func (r *memoryRepository) transition(id string, apply func(*Request), processedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	request, ok := r.storage[id]
	if !ok {
		return ErrNotFound
	}
	if request.Processed() {
		return ErrAlreadyProcessed
	}

	apply(&request)
	at := processedAt.UTC()
	request.ProcessedAt = &at
	r.storage[id] = request
	return nil
}
