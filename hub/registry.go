package hub

import (
	"sort"
	"sync"
)

// Registry memetakan connection id ke identitas logis. Aman dipakai banyak goroutine;
// setiap operasi hanya memegang lock sebentar dan tidak pernah menyentuh database.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Identity
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Identity)}
}

// Register menimpa mapping lama untuk connID yang sama (last-write-wins).
func (r *Registry) Register(connID string, id Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = id
}

func (r *Registry) IdentityOf(connID string) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.conns[connID]
	return id, ok
}

// ConnectionsFor mengembalikan connection id yang cocok, terurut. Kosong bukan error.
func (r *Registry) ConnectionsFor(sel Selector) []string {
	r.mu.RLock()
	ids := make([]string, 0)
	for connID, id := range r.conns {
		if sel.matches(id) {
			ids = append(ids, connID)
		}
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Deregister menghapus tepat satu koneksi. No-op kalau sudah tidak ada.
func (r *Registry) Deregister(connID string) (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.conns[connID]
	if ok {
		delete(r.conns, connID)
	}
	return id, ok
}

func (r *Registry) Has(connID string) bool {
	_, ok := r.IdentityOf(connID)
	return ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
