// Package cachetest fornece um cache.Client em memória para testes.
package cachetest

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"siteadmin/internal/pkg/cache"
)

type item struct {
	value     string
	expiresAt time.Time
}

// Memory é um cache.Client em memória, seguro para uso concorrente.
// Err, quando definido, é devolvido por todas as operações.
type Memory struct {
	mu    sync.Mutex
	items map[string]item
	Err   error
	Now   func() time.Time
}

var _ cache.Client = (*Memory)(nil)

// New cria um cache vazio.
func New() *Memory {
	return &Memory{items: make(map[string]item), Now: time.Now}
}

func (m *Memory) live(key string) (item, bool) {
	it, ok := m.items[key]
	if !ok {
		return item{}, false
	}
	if !it.expiresAt.IsZero() && !m.Now().Before(it.expiresAt) {
		delete(m.items, key)
		return item{}, false
	}
	return it, true
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	it, ok := m.live(key)
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return it.value, nil
}

func (m *Memory) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		s = fmt.Sprint(v)
	}
	it := item{value: s}
	if expiration > 0 {
		it.expiresAt = m.Now().Add(expiration)
	}
	m.items[key] = it
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.items, key)
	return nil
}

func (m *Memory) Incr(_ context.Context, key string, expiration time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	it, ok := m.live(key)
	var n int64
	if ok {
		n, _ = strconv.ParseInt(it.value, 10, 64)
	} else if expiration > 0 {
		it.expiresAt = m.Now().Add(expiration)
	}
	n++
	it.value = strconv.FormatInt(n, 10)
	m.items[key] = it
	return n, nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	_, ok := m.live(key)
	return ok, nil
}

// Has informa se a chave está presente (atalho para asserções).
func (m *Memory) Has(key string) bool {
	ok, _ := m.Exists(context.Background(), key)
	return ok
}
