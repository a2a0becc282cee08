// Package cartstore persists cart line items in a key-value backend, one
// record per cart session.
package cartstore

import (
	"context"
	"strings"
	"sync"
)

// KV is the minimal durable key-value surface the cart store needs.
type KV interface {
	// Get returns the value at key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, key string) error
}

// Keyer builds backend keys from parts.
type Keyer interface {
	Key(parts ...string) string
}

// Namespace prefixes keys with its value, joined by ":".
type Namespace string

func (n Namespace) Key(parts ...string) string {
	clean := make([]string, 0, len(parts)+1)
	if ns := strings.TrimSpace(string(n)); ns != "" {
		clean = append(clean, ns)
	}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		clean = append(clean, part)
	}
	return strings.Join(clean, ":")
}

// MemoryKV keeps records in process memory. Used for local development and tests.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: map[string]string{}}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Ping always succeeds.
func (m *MemoryKV) Ping(context.Context) error {
	return nil
}
