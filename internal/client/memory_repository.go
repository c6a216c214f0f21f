package client

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewMemoryRepository builds an in-memory client store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{clients: make(map[string]Client)}
}

func (r *memoryRepository) Create(_ context.Context, c Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = c
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	if !ok {
		return Client{}, ErrNotFound
	}
	return c, nil
}

func (r *memoryRepository) GetByIdentification(_ context.Context, identification string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.clients {
		if c.Identification == identification {
			return c, nil
		}
	}
	return Client{}, ErrNotFound
}

func (r *memoryRepository) ExistsIdentification(_ context.Context, identification string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.clients {
		if c.Identification == identification {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepository) List(_ context.Context, limit, offset int) ([]Client, error) {
	return r.page(limit, offset, func(Client) bool { return true })
}

func (r *memoryRepository) ListActive(_ context.Context, limit, offset int) ([]Client, error) {
	return r.page(limit, offset, func(c Client) bool { return c.Active })
}

func (r *memoryRepository) page(limit, offset int, keep func(Client) bool) ([]Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []Client
	for _, c := range r.clients {
		if keep(c) {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *memoryRepository) Update(_ context.Context, c Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c.ID]; !ok {
		return ErrNotFound
	}
	r.clients[c.ID] = c
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[id]; !ok {
		return ErrNotFound
	}
	delete(r.clients, id)
	return nil
}
