// Package session tracks the engine instances bound to open streams so they
// can be reached by id (visibility, skip, admin) and disposed on shutdown.
package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("stream not found")

type Kind string

const (
	KindReveal Kind = "reveal"
	KindLoader Kind = "loader"
)

// Disposer is the one method every engine shares.
type Disposer interface {
	Dispose()
}

// Info describes a live stream for the admin API.
type Info struct {
	ID      string    `json:"id"`
	Kind    Kind      `json:"kind"`
	Label   string    `json:"label"`
	Started time.Time `json:"started"`
}

type entry struct {
	info   Info
	engine Disposer
	closed chan struct{}
}

type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Add registers engine and returns its stream id. The returned channel is
// closed when the engine is disposed through Close or CloseAll.
func (r *Registry) Add(kind Kind, label string, engine Disposer) (string, <-chan struct{}) {
	id := uuid.NewString()
	closed := make(chan struct{})
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &entry{
		info:   Info{ID: id, Kind: kind, Label: label, Started: r.now()},
		engine: engine,
		closed: closed,
	}
	return id, closed
}

// Get returns the engine registered under id.
func (r *Registry) Get(id string) (Disposer, Kind, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, "", ErrNotFound
	}
	return e.engine, e.info.Kind, nil
}

// Remove forgets id without disposing it.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Close disposes and forgets id.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	e.engine.Dispose()
	close(e.closed)
	return nil
}

// CloseAll disposes every registered engine and returns how many there were.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range entries {
		e.engine.Dispose()
		close(e.closed)
	}
	return len(entries)
}

// List returns live streams, oldest first.
func (r *Registry) List() []Info {
	r.mu.Lock()
	out := make([]Info, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.info)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Started.Equal(out[j].Started) {
			return out[i].Started.Before(out[j].Started)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
