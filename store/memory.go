package store

import (
	"context"
	"strconv"
	"sync"

	"altimpact.dev/item"
)

// Memory is an in-process Store for tests and single-node/offline
// operation, guarded by a single mutex since the access pattern is
// dominated by point lookups rather than scans.
type Memory struct {
	mu          sync.Mutex
	items       map[string]*item.Item
	collections map[string]*item.Collection
	users       map[string]*item.User
	itemRevSeq  int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		items:       map[string]*item.Item{},
		collections: map[string]*item.Collection{},
		users:       map[string]*item.User{},
	}
}

func (m *Memory) nextRev() string {
	m.itemRevSeq++
	return strconv.Itoa(m.itemRevSeq)
}

func cloneItem(it *item.Item) *item.Item {
	cp := *it
	cp.Aliases = map[string][]string{}
	for k, v := range it.Aliases {
		cp.Aliases[k] = append([]string(nil), v...)
	}
	cp.Biblio = map[string]any{}
	for k, v := range it.Biblio {
		cp.Biblio[k] = v
	}
	cp.Metrics = map[string]item.MetricRecord{}
	for k, v := range it.Metrics {
		rec := v
		rec.Values.RawHistory = map[string]float64{}
		for ts, val := range v.Values.RawHistory {
			rec.Values.RawHistory[ts] = val
		}
		cp.Metrics[k] = rec
	}
	return &cp
}

func (m *Memory) CreateItem(ctx context.Context, it *item.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[it.TIID]; exists {
		return ErrConflict
	}
	it.Rev = m.nextRev()
	m.items[it.TIID] = cloneItem(it)
	return nil
}

func (m *Memory) GetItem(ctx context.Context, tiid string) (*item.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[tiid]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneItem(it), nil
}

func (m *Memory) SaveItem(ctx context.Context, it *item.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.items[it.TIID]
	if ok && existing.Rev != it.Rev {
		return ErrConflict
	}
	it.Rev = m.nextRev()
	m.items[it.TIID] = cloneItem(it)
	return nil
}

func (m *Memory) FindTIIDByAlias(ctx context.Context, namespace, id string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for tiid, it := range m.items {
		for _, v := range it.Aliases[namespace] {
			if v == id {
				return tiid, true, nil
			}
		}
	}
	return "", false, nil
}

func (m *Memory) ItemsNeedingAliases(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for tiid, it := range m.items {
		if it.NeedsAliases != nil {
			out = append(out, tiid)
		}
	}
	return out, nil
}

func (m *Memory) CreateCollection(ctx context.Context, c *item.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.collections[c.CID]; exists {
		return ErrConflict
	}
	c.Rev = m.nextRev()
	cp := *c
	cp.TIIDs = append([]string(nil), c.TIIDs...)
	m.collections[c.CID] = &cp
	return nil
}

func (m *Memory) GetCollection(ctx context.Context, cid string) (*item.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[cid]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	cp.TIIDs = append([]string(nil), c.TIIDs...)
	return &cp, nil
}

func (m *Memory) SaveCollection(ctx context.Context, c *item.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.collections[c.CID]
	if ok && existing.Rev != c.Rev {
		return ErrConflict
	}
	c.Rev = m.nextRev()
	cp := *c
	cp.TIIDs = append([]string(nil), c.TIIDs...)
	m.collections[c.CID] = &cp
	return nil
}

func (m *Memory) GetUser(ctx context.Context, apiKey string) (*item.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[apiKey]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) SaveUser(ctx context.Context, u *item.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Rev = m.nextRev()
	cp := *u
	m.users[u.APIKey] = &cp
	return nil
}
