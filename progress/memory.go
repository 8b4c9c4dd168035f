package progress

import (
	"context"
	"sync"
)

// MemoryRegistry is a mutex-guarded in-memory Registry, used in tests and
// for local/offline operation without Redis.
type MemoryRegistry struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMemoryRegistry returns an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{counts: map[string]int{}}
}

func (r *MemoryRegistry) Set(ctx context.Context, tiid string, n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[tiid] = n
	return nil
}

func (r *MemoryRegistry) Decr(ctx context.Context, tiid string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[tiid]--
	return r.counts[tiid], nil
}

func (r *MemoryRegistry) Get(ctx context.Context, tiid string) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.counts[tiid]
	return n, ok, nil
}

func (r *MemoryRegistry) Clear(ctx context.Context, tiid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.counts, tiid)
	return nil
}
