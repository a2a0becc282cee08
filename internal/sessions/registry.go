// Package sessions keeps the live checkout sessions of the storefront,
// building them on first use and evicting idle ones.
package sessions

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/greensolartech/storefront/internal/cartstore"
	"github.com/greensolartech/storefront/internal/checkout"
	pkgerrors "github.com/greensolartech/storefront/pkg/errors"
	"github.com/greensolartech/storefront/pkg/logger"
)

const defaultIdleTTL = 30 * time.Minute

// Registry maps cart session ids to sessions. Evicted sessions are rebuilt
// from the store on the next request.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*checkout.Session
	store    *cartstore.Store
	deps     checkout.Deps
	idleTTL  time.Duration
	now      func() time.Time
	logg     *logger.Logger
}

func NewRegistry(store *cartstore.Store, deps checkout.Deps, idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Registry{
		sessions: map[string]*checkout.Session{},
		store:    store,
		deps:     deps,
		idleTTL:  idleTTL,
		now:      now,
		logg:     logg,
	}
}

// Get returns the session for id, loading it from the store if needed.
func (r *Registry) Get(ctx context.Context, id string) (*checkout.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.Validation("cart session id is required")
	}

	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		return s, nil
	}

	// NewSession reads the store; build outside the lock and re-check below.
	built := checkout.NewSession(ctx, id, r.store.ForSession(id), r.deps)

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s, nil
	}
	r.sessions[id] = built
	return built, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict drops sessions idle longer than the TTL and returns how many were
// removed. Sessions with an order in flight are kept.
func (r *Registry) Evict() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.Busy() || s.LastActive().After(cutoff) {
			continue
		}
		delete(r.sessions, id)
		removed++
	}
	return removed
}

// Run evicts idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.idleTTL / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(); n > 0 {
				r.logg.Debug(r.logg.WithField(ctx, "evicted", n), "idle cart sessions evicted")
			}
		}
	}
}
