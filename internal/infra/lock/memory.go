package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryLocker はプロセス内のキー単位ロック（単一インスタンス用）
type MemoryLocker struct {
	wait time.Duration

	mu    sync.Mutex
	locks map[string]*memoryEntry
}

type memoryEntry struct {
	sem  chan struct{}
	refs int
}

func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	return &MemoryLocker{
		wait:  wait,
		locks: make(map[string]*memoryEntry),
	}
}

// Acquire は全キーを取るまで待つ。返した関数で全部解放する。
func (m *MemoryLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	if m.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.wait)
		defer cancel()
	}

	keys = normalizeKeys(keys)
	held := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := m.lockOne(ctx, key); err != nil {
			m.unlockAll(held)
			return nil, err
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() {
		once.Do(func() { m.unlockAll(held) })
	}, nil
}

func (m *MemoryLocker) lockOne(ctx context.Context, key string) error {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &memoryEntry{sem: make(chan struct{}, 1)}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		m.mu.Lock()
		m.deref(key, e)
		m.mu.Unlock()
		return fmt.Errorf("%w: %s: %v", ErrBusy, key, ctx.Err())
	}
}

func (m *MemoryLocker) unlockAll(keys []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(keys) - 1; i >= 0; i-- {
		e, ok := m.locks[keys[i]]
		if !ok {
			continue
		}
		<-e.sem
		m.deref(keys[i], e)
	}
}

// mu を持った状態で呼ぶ
func (m *MemoryLocker) deref(key string, e *memoryEntry) {
	e.refs--
	if e.refs == 0 {
		delete(m.locks, key)
	}
}
