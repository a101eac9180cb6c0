// README: In-memory Repository. One store-wide lock is held for the whole unit of work,
// and a failed unit of work restores the state it started from.
package matching

import (
	"context"
	"sort"
	"sync"

	"relay/internal/types"
)

type memTxKey struct{}

type MemStore struct {
	mu        sync.Mutex
	resources map[types.ID]Resource
	requests  map[types.ID]Request
	events    []Event
}

func NewMemStore() *MemStore {
	return &MemStore{
		resources: make(map[types.ID]Resource),
		requests:  make(map[types.ID]Request),
	}
}

func (m *MemStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.inTx(ctx) {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	resources := make(map[types.ID]Resource, len(m.resources))
	for k, v := range m.resources {
		resources[k] = v
	}
	requests := make(map[types.ID]Request, len(m.requests))
	for k, v := range m.requests {
		requests[k] = v
	}
	events := len(m.events)

	if err := fn(context.WithValue(ctx, memTxKey{}, m)); err != nil {
		m.resources, m.requests, m.events = resources, requests, m.events[:events]
		return err
	}
	return nil
}

func (m *MemStore) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(memTxKey{}).(*MemStore)
	return owner == m
}

// lock takes the store lock unless ctx already runs inside this store's unit of work.
func (m *MemStore) lock(ctx context.Context) func() {
	if m.inTx(ctx) {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *MemStore) CreateResource(ctx context.Context, r *Resource) error {
	defer m.lock(ctx)()
	if _, ok := m.resources[r.ID]; ok {
		return types.ConflictError{Resource: "resource", Msg: "duplicate id"}
	}
	m.resources[r.ID] = *r
	return nil
}

func (m *MemStore) GetResource(ctx context.Context, id types.ID) (*Resource, error) {
	defer m.lock(ctx)()
	r, ok := m.resources[id]
	if !ok {
		return nil, types.NotFoundError{Resource: "resource", ID: id}
	}
	return &r, nil
}

func (m *MemStore) LockResource(ctx context.Context, id types.ID) (*Resource, error) {
	return m.GetResource(ctx, id)
}

func (m *MemStore) UpdateResource(ctx context.Context, r *Resource, expectedVersion int) (bool, error) {
	defer m.lock(ctx)()
	cur, ok := m.resources[r.ID]
	if !ok || cur.Version != expectedVersion {
		return false, nil
	}
	cur.AvailableSpace = r.AvailableSpace
	cur.Status = r.Status
	cur.UpdatedAt = r.UpdatedAt
	cur.Version = expectedVersion + 1
	m.resources[r.ID] = cur
	return true, nil
}

func (m *MemStore) CreateRequest(ctx context.Context, req *Request) error {
	defer m.lock(ctx)()
	if _, ok := m.requests[req.ID]; ok {
		return types.ConflictError{Resource: "request", Msg: "duplicate id"}
	}
	m.requests[req.ID] = *req
	return nil
}

func (m *MemStore) GetRequest(ctx context.Context, id types.ID) (*Request, error) {
	defer m.lock(ctx)()
	req, ok := m.requests[id]
	if !ok {
		return nil, types.NotFoundError{Resource: "request", ID: id}
	}
	return &req, nil
}

func (m *MemStore) LockRequest(ctx context.Context, id types.ID) (*Request, error) {
	return m.GetRequest(ctx, id)
}

func (m *MemStore) UpdateRequestStatus(ctx context.Context, req *Request, from Status) (bool, error) {
	defer m.lock(ctx)()
	cur, ok := m.requests[req.ID]
	if !ok || cur.Status != from {
		return false, nil
	}
	m.requests[req.ID] = *req
	return true, nil
}

func (m *MemStore) HasPendingRequest(ctx context.Context, resourceID, requesterID types.ID) (bool, error) {
	defer m.lock(ctx)()
	for _, req := range m.requests {
		if req.ResourceID == resourceID && req.RequesterID == requesterID && req.Status == StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) ListRequests(ctx context.Context, resourceID types.ID) ([]*Request, error) {
	defer m.lock(ctx)()
	var out []*Request
	for _, req := range m.requests {
		if req.ResourceID == resourceID {
			req := req
			out = append(out, &req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemStore) AppendEvent(ctx context.Context, e *Event) error {
	defer m.lock(ctx)()
	e.ID = int64(len(m.events) + 1)
	m.events = append(m.events, *e)
	return nil
}

// Events returns a copy of the audit trail.
func (m *MemStore) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}
