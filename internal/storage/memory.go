package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/JonMunkholm/roster/internal/core"
)

// Memory keeps blobs in process memory. Used by tests and --backend memory.
type Memory struct {
	mu      sync.RWMutex
	blobs   map[string][]byte
	putErrs map[string]error
	puts    map[string]int
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		blobs:   make(map[string][]byte),
		putErrs: make(map[string]error),
		puts:    make(map[string]int),
	}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[key]
	if !ok {
		return nil, core.ErrBlobNotFound
	}
	return slices.Clone(data), nil
}

func (m *Memory) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.puts[key]++
	if err := m.putErrs[key]; err != nil {
		return err
	}
	m.blobs[key] = slices.Clone(data)
	return nil
}

func (m *Memory) Close() error {
	return nil
}

// FailPut makes every following Put of key return err. A nil err clears it.
func (m *Memory) FailPut(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.putErrs, key)
		return
	}
	m.putErrs[key] = err
}

// Set stores raw bytes under key, bypassing failure injection.
func (m *Memory) Set(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = slices.Clone(data)
}

// Puts returns how many times Put was called for key, including failures.
func (m *Memory) Puts(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts[key]
}
